package job

import (
	"sync/atomic"

	"github.com/danmuck/sideswap/internal/protocol"
)

// StatusCell is the job progress flag shared between a session and its job.
// The zero value reads as UNKNOWN.
type StatusCell struct {
	v atomic.Uint32
}

func NewStatusCell() *StatusCell {
	return &StatusCell{}
}

func (c *StatusCell) Load() protocol.Status {
	v := c.v.Load()
	if v == 0 {
		return protocol.StatusUnknown
	}
	return protocol.Status(v)
}

func (c *StatusCell) Store(s protocol.Status) {
	c.v.Store(uint32(s))
}

// CompareAndSwap moves the cell from old to next atomically.
func (c *StatusCell) CompareAndSwap(old, next protocol.Status) bool {
	if old == protocol.StatusUnknown && c.v.CompareAndSwap(0, uint32(next)) {
		return true
	}
	return c.v.CompareAndSwap(uint32(old), uint32(next))
}
