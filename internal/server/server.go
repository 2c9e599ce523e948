package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/danmuck/sideswap/internal/observability"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/session"
	"github.com/rs/zerolog"
)

// Service owns the accept loop and the live session count.
type Service struct {
	cfg    Config
	logger zerolog.Logger

	active atomic.Int64
	ready  atomic.Bool
}

func NewService(cfg Config, logger zerolog.Logger) *Service {
	cfg = cfg.WithDefaults()
	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Str("node", cfg.Node).Logger(),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// ActiveSessions reports connections currently being served.
func (s *Service) ActiveSessions() int64 {
	return s.active.Load()
}

// Ready reports whether the accept loop is running.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// ListenAndServe binds ListenAddr, starts the admin router when MetricsAddr
// is set, and serves until ctx is done or a session fails fatally.
func (s *Service) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddr, err)
	}

	if s.cfg.MetricsAddr != "" {
		adminCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		router := observability.AdminRouter(s.cfg.Node, s.cfg.CorsOrigins, s, observability.Component("admin"))
		go func() {
			if err := observability.ServeAdmin(adminCtx, s.cfg.MetricsAddr, router, s.logger); err != nil {
				s.logger.Error().Err(err).Str("addr", s.cfg.MetricsAddr).Msg("admin http stopped")
			}
		}()
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It returns nil on a
// requested shutdown and an error wrapping protocol.ErrRetryBudgetExceeded
// when any session exhausts its retry budget. Serve closes ln and waits for
// every session to finish before returning.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	var sessions sync.WaitGroup
	defer sessions.Wait()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	s.ready.Store(true)
	defer s.ready.Store(false)
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Int("lanes", s.cfg.Session.Lanes).
		Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				if cause := context.Cause(ctx); protocol.IsFatal(cause) {
					s.logger.Error().Err(cause).Msg("session failed fatally, stopping listener")
					return cause
				}
				s.logger.Info().Msg("listener stopped")
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		sessions.Add(1)
		go func() {
			defer sessions.Done()
			if err := s.handleConn(ctx, conn); protocol.IsFatal(err) {
				cancel(err)
			}
		}()
	}
}

// handleConn runs one session and reports how it ended.
func (s *Service) handleConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	active := s.active.Add(1)
	observability.SessionOpened()
	s.logger.Info().Str("remote", remote).Int64("active_sessions", active).Msg("client connected")

	err := session.Serve(ctx, conn, s.cfg.Session, s.logger)

	reason := closeReason(err)
	remaining := s.active.Add(-1)
	observability.SessionClosed(reason)
	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Str("remote", remote).
		Str("reason", reason).
		Int64("active_sessions", remaining).
		Msg("client disconnected")
	return err
}

func closeReason(err error) string {
	switch {
	case err == nil:
		return "disconnect"
	case protocol.IsFatal(err):
		return "retry_budget"
	case errors.Is(err, protocol.ErrPeerStalled):
		return "peer_stalled"
	case errors.Is(err, protocol.ErrProtocolViolation):
		return "protocol_violation"
	default:
		return "io_error"
	}
}
