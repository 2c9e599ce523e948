package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/sideswap/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesValidateStrictly(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	for _, kind := range []string{KindServer, KindClient} {
		path := filepath.Join(dir, kind+".toml")
		require.NoError(t, WriteTemplate(path, kind, false))
		assert.NoError(t, Validate(kind, path), kind)
	}
}

func TestTemplateRendersDefaults(t *testing.T) {
	testlog.Start(t)
	out, err := Template(" Server ")
	require.NoError(t, err)
	assert.Contains(t, out, "listen_addr")
	assert.Contains(t, out, "127.0.0.1:5400")
	assert.Contains(t, out, "lanes = 1")
	assert.Contains(t, out, "read_retries = 5")

	out, err = Template("client")
	require.NoError(t, err)
	assert.Contains(t, out, "matrix_size = 10")
	assert.Contains(t, out, "poll_interval")
	assert.Contains(t, out, "100ms")

	_, err = Template("mirage")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))

	assert.Error(t, WriteTemplate(path, KindServer, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	require.NoError(t, WriteTemplate(path, KindServer, true))
	assert.NoError(t, Validate(KindServer, path))
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr = \"127.0.0.1:1\"\nlanez = 4\n"), 0o600))

	err := Validate(KindServer, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lanez")
}

func TestValidateRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]struct {
		kind string
		body string
	}{
		"empty listen addr":   {KindServer, "listen_addr = \"\"\n"},
		"negative retries":    {KindServer, "listen_addr = \"x:1\"\nread_retries = -1\n"},
		"bad timeout":         {KindServer, "listen_addr = \"x:1\"\nframe_read_timeout = \"soon\"\n"},
		"zero matrix size":    {KindClient, "matrix_size = 0\n"},
		"negative poll":       {KindClient, "poll_interval = \"-1s\"\n"},
	}
	dir := t.TempDir()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))
			assert.Error(t, Validate(tc.kind, path))
		})
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "client.toml")
	require.NoError(t, os.WriteFile(path, []byte("matrix_size = 3\n"), 0o600))

	cfg, err := LoadClientFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MatrixSize)
	assert.Equal(t, DefaultClientFile().ServerAddr, cfg.ServerAddr)
	assert.Equal(t, "100ms", cfg.PollInterval)
}

func TestParseDuration(t *testing.T) {
	testlog.Start(t)
	d, err := ParseDuration("k", "")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseDuration("k", " 250ms ")
	require.NoError(t, err)
	assert.Equal(t, "250ms", d.String())
}

func TestDefaultPath(t *testing.T) {
	testlog.Start(t)
	p, err := DefaultPath("client")
	require.NoError(t, err)
	assert.Equal(t, "cmd/sideswapctl/config.toml", p)
	_, err = DefaultPath("ghost")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
