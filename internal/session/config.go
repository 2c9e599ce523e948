package session

import (
	"time"

	"github.com/danmuck/sideswap/internal/protocol/frame"
	"github.com/danmuck/sideswap/internal/protocol/retry"
)

// Config defines per-session execution and read discipline.
type Config struct {
	Lanes  int
	Limits frame.Limits
	Budget retry.Budget
	// FrameReadTimeout bounds each frame read attempt. Zero disables it.
	FrameReadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Lanes:  1,
		Limits: frame.DefaultLimits(),
		Budget: retry.DefaultBudget(),
	}
}

func (c Config) WithDefaults() Config {
	if c.Lanes < 1 {
		c.Lanes = 1
	}
	c.Limits = c.Limits.WithDefaults()
	c.Budget = c.Budget.WithDefaults()
	if c.FrameReadTimeout < 0 {
		c.FrameReadTimeout = 0
	}
	return c
}
