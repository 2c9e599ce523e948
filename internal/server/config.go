package server

import (
	"strings"

	"github.com/danmuck/sideswap/internal/session"
)

const (
	// DefaultListenAddr is the loopback endpoint clients dial by default.
	DefaultListenAddr = "127.0.0.1:5400"
	// DefaultNode labels this server in admin metrics and logs.
	DefaultNode = "sideswapd"
)

// Config configures the listener and every session it spawns.
type Config struct {
	ListenAddr string
	Node       string
	Session    session.Config
	// MetricsAddr enables the admin HTTP router when non-empty.
	MetricsAddr string
	CorsOrigins []string
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		Node:       DefaultNode,
		Session:    session.DefaultConfig(),
	}
}

func (c Config) WithDefaults() Config {
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	c.Node = strings.TrimSpace(c.Node)
	if c.Node == "" {
		c.Node = DefaultNode
	}
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.Session = c.Session.WithDefaults()
	return c
}
