package client

import (
	"bytes"
	"context"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/server"
	"github.com/danmuck/sideswap/internal/session"
	"github.com/danmuck/sideswap/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeClient wires a Client to an in-process session over net.Pipe.
func pipeClient(t *testing.T) *Client {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer serverConn.Close()
		_ = session.Serve(ctx, serverConn, session.DefaultConfig(), log.Logger)
	}()
	c := NewClient(clientConn, DefaultConfig(), log.Logger)
	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestClientCommandsAgainstSession(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	require.NoError(t, c.Upload(matrix.Matrix{{1, 2}, {3, 4}}))

	status, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusUnknown, status)

	status, out, err := c.Result()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusUnknown, status)
	assert.Nil(t, out)

	status, err = c.Start()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusInProgress, status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err = c.Await(ctx, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, protocol.StatusCompleted, status)

	status, out, err = c.Result()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusCompleted, status)
	assert.Equal(t, matrix.Matrix{{4, 2}, {3, 1}}, out)
}

func TestSendRejectsUnknownReplyByte(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	c := NewClient(clientConn, DefaultConfig(), log.Logger)
	defer c.Close()

	go func() {
		var cmd [1]byte
		if _, err := serverConn.Read(cmd[:]); err != nil {
			return
		}
		_, _ = serverConn.Write([]byte{0x42})
	}()

	_, err := c.Status()
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrProtocolViolation)
}

func TestUploadRejectsUnencodableMatrix(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	assert.ErrorIs(t, c.Upload(matrix.Matrix{{300}}), matrix.ErrCellOutOfRange)
	assert.ErrorIs(t, c.Upload(matrix.Matrix{{1, 2}}), matrix.ErrNotSquare)
}

func TestDialFailureWrapsConnectFailure(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := DefaultConfig()
	cfg.ServerAddr = addr
	cfg.ConnectTimeout = time.Second
	_, err = Dial(context.Background(), cfg, log.Logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrConnectFailure)
}

func TestDialAndAwaitAgainstServer(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	svcCfg := server.DefaultConfig()
	svcCfg.Session.Lanes = 3
	svc := server.NewService(svcCfg, log.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx, ln) }()

	cfg := DefaultConfig()
	cfg.ServerAddr = ln.Addr().String()
	cfg.PollInterval = time.Millisecond
	c, err := Dial(context.Background(), cfg, log.Logger)
	require.NoError(t, err)

	in := matrix.Random(10, rand.New(rand.NewSource(7)))
	require.NoError(t, c.Upload(in))
	status, err := c.Start()
	require.NoError(t, err)
	require.Equal(t, protocol.StatusInProgress, status)

	awaitCtx, awaitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer awaitCancel()
	status, err = c.Await(awaitCtx, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.StatusCompleted, status)

	_, out, err := c.Result()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			assert.Equal(t, in[9-i][9-j], out[j][i])
		}
	}

	require.NoError(t, c.Close())
	cancel()
	assert.NoError(t, <-errCh)
}

func TestRunConsoleNotReadyThenStops(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	require.NoError(t, c.Upload(matrix.Matrix{{1, 2}, {3, 4}}))

	var out bytes.Buffer
	err := RunConsole(context.Background(), c, strings.NewReader("1\n2\nquit\n"), &out)
	require.NoError(t, err)
	assert.Equal(t,
		"write command Received status: UNKNOWN\n"+
			"write command Received status: UNKNOWN\n"+
			"Matrix isn't ready\n"+
			"write command ",
		out.String())
}

func TestRunConsolePrintsCompletedMatrix(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	require.NoError(t, c.Upload(matrix.Matrix{{1, 2}, {3, 4}}))
	_, err := c.Start()
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = c.Await(ctx, time.Millisecond)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunConsole(context.Background(), c, strings.NewReader("1\n2\n"), &out))
	assert.Equal(t,
		"write command Received status: COMPLETED\n"+
			"write command Received status: COMPLETED\n"+
			"4 2\n3 1\n"+
			"write command ",
		out.String())
}

func TestRunConsoleOutOfRangeIndexStops(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	require.NoError(t, c.Upload(matrix.Matrix{{1}}))

	var out bytes.Buffer
	require.NoError(t, RunConsole(context.Background(), c, strings.NewReader("3\n0\n"), &out))
	assert.Equal(t, "write command ", out.String())

	status, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusUnknown, status, "console must not have sent START")
}

func TestRunConsoleStart(t *testing.T) {
	testlog.Start(t)
	c := pipeClient(t)
	require.NoError(t, c.Upload(matrix.Matrix{{1, 2}, {3, 4}}))

	var out bytes.Buffer
	require.NoError(t, RunConsole(context.Background(), c, strings.NewReader("0\n"), &out))
	assert.Equal(t, "write command Received status: IN_PROGRESS\nwrite command ", out.String())
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{ServerAddr: " ", FrameReadTimeout: -time.Second}.WithDefaults()
	assert.Equal(t, "127.0.0.1:5400", cfg.ServerAddr)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Zero(t, cfg.FrameReadTimeout)
}
