package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/observability"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/protocol/frame"
	"github.com/danmuck/sideswap/internal/protocol/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Serve runs the protocol on conn until the peer disconnects, an unknown
// command arrives, or ctx is done. A clean disconnect returns nil. Errors
// wrapping protocol.ErrRetryBudgetExceeded must be escalated by the caller.
// The caller owns conn and closes it after Serve returns.
func Serve(ctx context.Context, conn net.Conn, cfg Config, logger zerolog.Logger) error {
	cfg = cfg.WithDefaults()
	id := uuid.NewString()
	logger = logger.With().
		Str("session_id", id).
		Str("remote", remoteAddr(conn)).
		Logger()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	budget := cfg.Budget
	budget.OnRetry = func(attempt int, err error) {
		observability.RecordReadRetry("server")
		logger.Warn().Err(err).Int("attempt", attempt).Msg("read failed, retrying")
	}

	payload, err := frame.ReadFrame(retry.WithAttemptTimeout(conn, cfg.FrameReadTimeout), cfg.Limits, budget)
	if err != nil {
		if isDisconnect(err) && !protocol.IsFatal(err) {
			logger.Info().Msg("peer left before upload")
			return nil
		}
		return fmt.Errorf("session: read input matrix: %w", err)
	}
	in := matrix.Decode(payload)
	logger.Info().Int("bytes", len(payload)).Int("n", in.Size()).Msg("matrix received")

	s := New(ctx, id, in, cfg, logger)
	defer s.Close()

	var cmdBuf [1]byte
	for {
		if err := retry.ReadFull(conn, cmdBuf[:], budget); err != nil {
			if protocol.IsFatal(err) {
				return fmt.Errorf("session: read command: %w", err)
			}
			if isDisconnect(err) || ctx.Err() != nil {
				logger.Info().Msg("peer disconnected")
				return nil
			}
			return fmt.Errorf("%w: read command: %w", protocol.ErrIOFailure, err)
		}

		cmd := protocol.Command(cmdBuf[0])
		reply := s.Handle(cmd)
		observability.RecordCommand(cmd.String(), reply.Status.String())

		event := logger.Debug()
		if reply.Err != nil {
			event = logger.Warn().Err(reply.Err)
		}
		event.Str("command", cmd.String()).Str("status", reply.Status.String()).Msg("command handled")

		if err := WriteReply(conn, reply, cfg.Limits); err != nil {
			return err
		}
		if reply.Close {
			return reply.Err
		}
	}
}

// WriteReply writes the status byte and, for a completed RESULT, the output
// matrix frame.
func WriteReply(w io.Writer, reply Reply, limits frame.Limits) error {
	if _, err := w.Write([]byte{byte(reply.Status)}); err != nil {
		return fmt.Errorf("%w: write status: %w", protocol.ErrIOFailure, err)
	}
	if reply.Result == nil {
		return nil
	}
	payload, err := matrix.Encode(reply.Result)
	if err != nil {
		return err
	}
	return frame.WriteFrame(w, payload, limits)
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, frame.ErrShortHeader) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
