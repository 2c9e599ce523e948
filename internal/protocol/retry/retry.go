// Package retry owns the partial-read retry discipline used for every frame
// read on a stream socket.
//
// A failed read is retried immediately, without backoff. A read that makes
// progress resets the consecutive-failure counter. Exceeding the budget yields
// protocol.ErrRetryBudgetExceeded, which is unrecoverable.
package retry

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danmuck/sideswap/internal/protocol"
)

// DefaultMaxConsecutiveFailures tolerates five failed reads in a row; the sixth
// consecutive failure is fatal.
const DefaultMaxConsecutiveFailures = 5

// Budget bounds consecutive failed reads.
type Budget struct {
	MaxConsecutiveFailures int
	// OnRetry observes each tolerated failure (1-based attempt).
	OnRetry func(attempt int, err error)
}

func DefaultBudget() Budget {
	return Budget{MaxConsecutiveFailures: DefaultMaxConsecutiveFailures}
}

// WithDefaults replaces a negative failure count with the default.
func (b Budget) WithDefaults() Budget {
	if b.MaxConsecutiveFailures < 0 {
		b.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	return b
}

// ReadExactly reads exactly n bytes from r.
func ReadExactly(r io.Reader, n int, budget Budget) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", protocol.ErrIOFailure, n)
	}
	buf := make([]byte, n)
	if err := ReadFull(r, buf, budget); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadFull fills buf from r.
//
// Connection teardown is not retried: a clean EOF before any byte returns
// io.EOF, an EOF mid-buffer returns io.ErrUnexpectedEOF, and a closed
// connection error is returned as is. A budget spent only on read deadline
// timeouts returns protocol.ErrPeerStalled instead of
// protocol.ErrRetryBudgetExceeded: an idle peer ends its own session.
func ReadFull(r io.Reader, buf []byte, budget Budget) error {
	budget = budget.WithDefaults()
	total := 0
	failures := 0
	timeouts := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		if n > 0 {
			total += n
			failures = 0
			timeouts = 0
		}
		if err == nil && n > 0 {
			continue
		}
		if total == len(buf) {
			return nil
		}
		if err != nil && isTeardown(err) {
			if errors.Is(err, io.EOF) {
				if total == 0 {
					return io.EOF
				}
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if err == nil {
			err = io.ErrNoProgress
		}
		failures++
		if isTimeout(err) {
			timeouts++
		}
		if failures > budget.MaxConsecutiveFailures {
			if timeouts == failures {
				return fmt.Errorf("%w (%d consecutive timeouts): %w", protocol.ErrPeerStalled, failures, err)
			}
			return fmt.Errorf("%w (%d consecutive failures): %w", protocol.ErrRetryBudgetExceeded, failures, err)
		}
		if budget.OnRetry != nil {
			budget.OnRetry(failures, err)
		}
	}
	return nil
}

func isTeardown(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type attemptTimeoutReader struct {
	r       io.Reader
	conn    readDeadliner
	timeout time.Duration
}

// WithAttemptTimeout gives every Read on r its own deadline when r is a
// connection, so a stalled peer is charged against the budget. The deadline is
// cleared after each attempt. A non-positive timeout returns r unchanged.
func WithAttemptTimeout(r io.Reader, timeout time.Duration) io.Reader {
	if timeout <= 0 {
		return r
	}
	conn, ok := r.(readDeadliner)
	if !ok {
		return r
	}
	return &attemptTimeoutReader{r: r, conn: conn, timeout: timeout}
}

func (a *attemptTimeoutReader) Read(p []byte) (int, error) {
	if err := a.conn.SetReadDeadline(time.Now().Add(a.timeout)); err != nil {
		return 0, err
	}
	n, err := a.r.Read(p)
	if clearErr := a.conn.SetReadDeadline(time.Time{}); clearErr != nil && err == nil {
		err = clearErr
	}
	return n, err
}
