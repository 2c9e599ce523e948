package protocol

import "errors"

var (
	// ErrConnectFailure marks a peer that could not be reached.
	ErrConnectFailure = errors.New("protocol: connect failure")
	// ErrIOFailure marks one failed read or write call.
	ErrIOFailure = errors.New("protocol: io failure")
	// ErrRetryBudgetExceeded is unrecoverable. Callers are expected to stop the
	// process rather than retry.
	ErrRetryBudgetExceeded = errors.New("protocol: retry budget exceeded")
	// ErrPeerStalled marks a read budget spent entirely on deadline timeouts.
	// It ends the stalled session only.
	ErrPeerStalled = errors.New("protocol: peer stalled")
	// ErrProtocolViolation marks an unrecognized command byte. It ends the
	// offending session only.
	ErrProtocolViolation = errors.New("protocol: protocol violation")
	// ErrStateConflict marks START while a job is still in progress.
	ErrStateConflict = errors.New("protocol: state conflict")
)

// IsFatal reports whether err must escalate past the session boundary.
func IsFatal(err error) bool {
	return errors.Is(err, ErrRetryBudgetExceeded)
}
