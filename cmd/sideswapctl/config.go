package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sideswap/internal/client"
	"github.com/danmuck/sideswap/internal/config"
)

// settings is the effective sideswapctl configuration.
type settings struct {
	Client     client.Config
	MatrixSize int
	// MatrixSeed seeds the generated matrix; zero picks a time based seed.
	MatrixSeed int64
}

func defaultSettings() settings {
	return settings{
		Client:     client.DefaultConfig(),
		MatrixSize: config.DefaultMatrixSize,
	}
}

func loadClientConfig(path string) (settings, error) {
	cfg := defaultSettings()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw config.ClientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return settings{}, fmt.Errorf("load client config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return settings{}, fmt.Errorf("load client config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("server_addr") {
		if addr := strings.TrimSpace(raw.ServerAddr); addr != "" {
			cfg.Client.ServerAddr = addr
		}
	}
	if meta.IsDefined("matrix_size") {
		if raw.MatrixSize < 1 {
			return settings{}, fmt.Errorf("matrix_size must be >= 1, got %d", raw.MatrixSize)
		}
		cfg.MatrixSize = raw.MatrixSize
	}
	if meta.IsDefined("matrix_seed") {
		cfg.MatrixSeed = raw.MatrixSeed
	}
	if meta.IsDefined("read_retries") {
		if raw.ReadRetries < 0 {
			return settings{}, fmt.Errorf("read_retries must be >= 0, got %d", raw.ReadRetries)
		}
		cfg.Client.Budget.MaxConsecutiveFailures = raw.ReadRetries
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.Client.Limits.MaxPayloadBytes = raw.MaxPayloadBytes
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Client.ConnectTimeout},
		{"frame_read_timeout", raw.FrameReadTimeout, &cfg.Client.FrameReadTimeout},
		{"poll_interval", raw.PollInterval, &cfg.Client.PollInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := config.ParseDuration(d.key, d.raw)
		if err != nil {
			return settings{}, err
		}
		*d.dst = v
	}

	cfg.Client = cfg.Client.WithDefaults()
	return cfg, nil
}
