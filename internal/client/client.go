package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/observability"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/protocol/frame"
	"github.com/danmuck/sideswap/internal/protocol/retry"
	"github.com/rs/zerolog"
)

// Client is one connection to a matrix server. It is not safe for concurrent
// use; the protocol is strictly request/reply.
type Client struct {
	cfg    Config
	conn   net.Conn
	budget retry.Budget
	logger zerolog.Logger
}

// Dial connects to cfg.ServerAddr. Failures wrap protocol.ErrConnectFailure.
func Dial(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", protocol.ErrConnectFailure, cfg.ServerAddr, err)
	}
	logger.Info().Str("addr", cfg.ServerAddr).Msg("connected")
	return NewClient(conn, cfg, logger), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, cfg Config, logger zerolog.Logger) *Client {
	cfg = cfg.WithDefaults()
	logger = logger.With().Str("component", "client").Logger()
	budget := cfg.Budget
	budget.OnRetry = func(attempt int, err error) {
		observability.RecordReadRetry("client")
		logger.Warn().Err(err).Int("attempt", attempt).Msg("read failed, retrying")
	}
	return &Client{cfg: cfg, conn: conn, budget: budget, logger: logger}
}

// Upload sends the input matrix. It must be called exactly once, first.
func (c *Client) Upload(m matrix.Matrix) error {
	payload, err := matrix.Encode(m)
	if err != nil {
		return err
	}
	if err := frame.WriteFrame(c.conn, payload, c.cfg.Limits); err != nil {
		return fmt.Errorf("client: upload: %w", err)
	}
	c.logger.Debug().Int("n", m.Size()).Int("bytes", len(payload)).Msg("matrix uploaded")
	return nil
}

// Send writes one command byte and reads the status reply. A RESULT answered
// with COMPLETED leaves the result frame unread; use Result for that.
func (c *Client) Send(cmd protocol.Command) (protocol.Status, error) {
	if _, err := c.conn.Write([]byte{byte(cmd)}); err != nil {
		return protocol.StatusUnknown, fmt.Errorf("%w: send %s: %w", protocol.ErrIOFailure, cmd, err)
	}
	var b [1]byte
	if err := retry.ReadFull(c.conn, b[:], c.budget); err != nil {
		return protocol.StatusUnknown, fmt.Errorf("client: read status for %s: %w", cmd, err)
	}
	status := protocol.Status(b[0])
	if !status.Valid() {
		return protocol.StatusUnknown, fmt.Errorf("%w: reply byte 0x%02x to %s", protocol.ErrProtocolViolation, b[0], cmd)
	}
	c.logger.Debug().Str("command", cmd.String()).Str("status", status.String()).Msg("reply")
	return status, nil
}

func (c *Client) Start() (protocol.Status, error) {
	return c.Send(protocol.CommandStart)
}

func (c *Client) Status() (protocol.Status, error) {
	return c.Send(protocol.CommandStatus)
}

// Result asks for the output matrix. The matrix is nil unless the status is
// COMPLETED.
func (c *Client) Result() (protocol.Status, matrix.Matrix, error) {
	status, err := c.Send(protocol.CommandResult)
	if err != nil || status != protocol.StatusCompleted {
		return status, nil, err
	}
	r := retry.WithAttemptTimeout(c.conn, c.cfg.FrameReadTimeout)
	payload, err := frame.ReadFrame(r, c.cfg.Limits, c.budget)
	if err != nil {
		return status, nil, fmt.Errorf("client: read result: %w", err)
	}
	return status, matrix.Decode(payload), nil
}

// Await polls STATUS every interval until the job reaches COMPLETED or ERR.
func (c *Client) Await(ctx context.Context, interval time.Duration) (protocol.Status, error) {
	if interval <= 0 {
		interval = c.cfg.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := c.Status()
		if err != nil {
			return status, err
		}
		if status.Terminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}
