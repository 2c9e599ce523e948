package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/danmuck/sideswap/internal/matrix"
)

// cancelCheckEvery is how many cells a lane writes between context checks.
const cancelCheckEvery = 1024

// Transform reflects in across its anti-diagonal using the given lane count.
func Transform(in matrix.Matrix, lanes int) (matrix.Matrix, error) {
	return TransformContext(context.Background(), in, lanes)
}

// TransformContext computes out[j][i] = in[N-1-i][N-1-j] for every cell.
//
// Lane t owns the flat row-major indices k with k mod lanes == t. Lanes write
// disjoint cells and are joined before the result is returned.
func TransformContext(ctx context.Context, in matrix.Matrix, lanes int) (matrix.Matrix, error) {
	if err := in.CheckSquare(); err != nil {
		return nil, err
	}
	n := in.Size()
	out := matrix.New(n)
	lanes = LaneCount(lanes, n*n)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		laneErr  error
		setError = func(err error) {
			errOnce.Do(func() { laneErr = err })
		}
	)
	for lane := 0; lane < lanes; lane++ {
		lane := lane
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					setError(fmt.Errorf("job: lane %d panicked: %v", lane, r))
				}
			}()
			if err := runLane(ctx, in, out, lane, lanes); err != nil {
				setError(err)
			}
		}()
	}
	wg.Wait()

	if laneErr != nil {
		return nil, laneErr
	}
	return out, nil
}

func runLane(ctx context.Context, in, out matrix.Matrix, lane, lanes int) error {
	n := in.Size()
	written := 0
	for k := lane; k < n*n; k += lanes {
		if written%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		i, j := k/n, k%n
		out[j][i] = in[n-1-i][n-1-j]
		written++
	}
	return nil
}

// LaneCount clamps the requested lane count to [1, max(cells, 1)].
func LaneCount(requested, cells int) int {
	if requested < 1 {
		requested = 1
	}
	if cells < 1 {
		cells = 1
	}
	if requested > cells {
		return cells
	}
	return requested
}
