package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/danmuck/sideswap/internal/job"
	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/observability"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/rs/zerolog"
)

// launcher starts a job over the session input. Tests swap it to gate jobs.
type launcher func(ctx context.Context, cell *job.StatusCell, in matrix.Matrix) *job.Job

// Reply is the server response to one command.
type Reply struct {
	Status protocol.Status
	// Result is set only when RESULT observed COMPLETED.
	Result matrix.Matrix
	// Close ends the session after the reply is written.
	Close bool
	// Err records a StateConflict or ProtocolViolation for logging.
	Err error
}

// Session is the state of one client connection. Handle must be called from a
// single goroutine; Status and Close are safe from any goroutine.
type Session struct {
	ID string

	input  matrix.Matrix
	cell   *job.StatusCell
	lanes  int
	launch launcher
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	current  *job.Job
	launched int
	watchers sync.WaitGroup
}

// New binds a session to its uploaded input matrix.
func New(ctx context.Context, id string, input matrix.Matrix, cfg Config, logger zerolog.Logger) *Session {
	cfg = cfg.WithDefaults()
	ctx, cancel := context.WithCancel(ctx)
	lanes := cfg.Lanes
	return &Session{
		ID:     id,
		input:  input,
		cell:   job.NewStatusCell(),
		lanes:  lanes,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		launch: func(ctx context.Context, cell *job.StatusCell, in matrix.Matrix) *job.Job {
			return job.Start(ctx, cell, in, lanes)
		},
	}
}

// Status returns the current job status.
func (s *Session) Status() protocol.Status {
	return s.cell.Load()
}

// Job returns the most recently launched job, or nil.
func (s *Session) Job() *job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Launched counts jobs started by this session.
func (s *Session) Launched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launched
}

// Handle applies one command to the state machine.
func (s *Session) Handle(cmd protocol.Command) Reply {
	if !cmd.Valid() {
		return Reply{
			Status: protocol.StatusErr,
			Close:  true,
			Err:    fmt.Errorf("%w: command byte 0x%02x", protocol.ErrProtocolViolation, byte(cmd)),
		}
	}
	switch cmd {
	case protocol.CommandStart:
		return s.handleStart()
	case protocol.CommandStatus:
		return Reply{Status: s.cell.Load()}
	default:
		return s.handleResult()
	}
}

func (s *Session) handleStart() Reply {
	cur := s.cell.Load()
	if cur == protocol.StatusInProgress || !s.cell.CompareAndSwap(cur, protocol.StatusInProgress) {
		return Reply{Status: protocol.StatusErr, Err: protocol.ErrStateConflict}
	}

	j := s.launch(s.ctx, s.cell, s.input)
	s.mu.Lock()
	s.current = j
	s.launched++
	seq := s.launched
	s.mu.Unlock()

	s.watchers.Add(1)
	go s.observe(j, seq)
	return Reply{Status: protocol.StatusInProgress}
}

func (s *Session) handleResult() Reply {
	status := s.cell.Load()
	if status != protocol.StatusCompleted {
		return Reply{Status: status}
	}
	j := s.Job()
	if j == nil {
		return Reply{Status: protocol.StatusErr}
	}
	// COMPLETED is stored just before done closes.
	<-j.Done()
	out, ok := j.Result()
	if !ok {
		return Reply{Status: protocol.StatusErr}
	}
	return Reply{Status: protocol.StatusCompleted, Result: out}
}

func (s *Session) observe(j *job.Job, seq int) {
	defer s.watchers.Done()
	err := j.Wait()
	status := protocol.StatusCompleted
	if err != nil {
		status = protocol.StatusErr
	}
	observability.RecordJob(status.String(), s.lanes, j.Elapsed())

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Int("job", seq).
		Int("n", s.input.Size()).
		Int("lanes", s.lanes).
		Dur("elapsed", j.Elapsed()).
		Str("status", status.String()).
		Msg("job finished")
}

// Close cancels a running job and waits for it to publish its final status.
func (s *Session) Close() {
	s.cancel()
	s.watchers.Wait()
}
