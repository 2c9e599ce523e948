package job

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/protocol"
)

// Func computes a job's output matrix.
type Func func(ctx context.Context) (matrix.Matrix, error)

// Job is the handle for one asynchronous execution. The session retains it so
// completion and cancellation are observable without polling the cell.
type Job struct {
	cell    *StatusCell
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	// written once by run before done is closed
	result  matrix.Matrix
	err     error
	elapsed time.Duration
}

// Start runs the anti-diagonal transform of in on lanes goroutines.
func Start(ctx context.Context, cell *StatusCell, in matrix.Matrix, lanes int) *Job {
	return Run(ctx, cell, func(ctx context.Context) (matrix.Matrix, error) {
		return TransformContext(ctx, in, lanes)
	})
}

// Run executes fn on its own goroutine. On success the output is stored and
// then COMPLETED is published to cell; on error, panic, or cancellation ERR is
// published instead.
func Run(ctx context.Context, cell *StatusCell, fn Func) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		cell:    cell,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	go j.run(ctx, fn)
	return j
}

func (j *Job) run(ctx context.Context, fn Func) {
	defer close(j.done)
	defer j.cancel()

	out, err := call(ctx, fn)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	j.elapsed = time.Since(j.started)
	if err != nil {
		j.err = err
		j.cell.Store(protocol.StatusErr)
		return
	}
	j.result = out
	j.cell.Store(protocol.StatusCompleted)
}

func call(ctx context.Context, fn Func) (out matrix.Matrix, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job: panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Done is closed once the job has published its terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its error.
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// Cancel asks a running job to stop. A cancelled job reports ERR.
func (j *Job) Cancel() {
	j.cancel()
}

// Result returns the output once the job has completed successfully.
func (j *Job) Result() (matrix.Matrix, bool) {
	select {
	case <-j.done:
	default:
		return nil, false
	}
	if j.err != nil {
		return nil, false
	}
	return j.result, true
}

// Err returns the failure of a finished job, or nil while running.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Elapsed is the run time of a finished job, or the time since start.
func (j *Job) Elapsed() time.Duration {
	select {
	case <-j.done:
		return j.elapsed
	default:
		return time.Since(j.started)
	}
}
