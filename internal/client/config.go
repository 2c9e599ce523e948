package client

import (
	"strings"
	"time"

	"github.com/danmuck/sideswap/internal/protocol/frame"
	"github.com/danmuck/sideswap/internal/protocol/retry"
)

// Config configures the connection and read discipline of a Client.
type Config struct {
	ServerAddr     string
	ConnectTimeout time.Duration
	Limits         frame.Limits
	Budget         retry.Budget
	// FrameReadTimeout bounds each result frame read attempt. Zero disables it.
	FrameReadTimeout time.Duration
	PollInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		ServerAddr:     "127.0.0.1:5400",
		ConnectTimeout: 5 * time.Second,
		Limits:         frame.DefaultLimits(),
		Budget:         retry.DefaultBudget(),
		PollInterval:   100 * time.Millisecond,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	c.ServerAddr = strings.TrimSpace(c.ServerAddr)
	if c.ServerAddr == "" {
		c.ServerAddr = d.ServerAddr
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.FrameReadTimeout < 0 {
		c.FrameReadTimeout = 0
	}
	c.Limits = c.Limits.WithDefaults()
	c.Budget = c.Budget.WithDefaults()
	return c
}
