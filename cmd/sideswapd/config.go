package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sideswap/internal/config"
	"github.com/danmuck/sideswap/internal/server"
)

// loadServerConfig layers the keys present in path over server defaults. An
// empty path returns the defaults.
func loadServerConfig(path string) (server.Config, error) {
	cfg := server.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw config.ServerFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.Config{}, fmt.Errorf("load server config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return server.Config{}, fmt.Errorf("load server config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("listen_addr") {
		if addr := strings.TrimSpace(raw.ListenAddr); addr != "" {
			cfg.ListenAddr = addr
		}
	}
	if meta.IsDefined("node") {
		cfg.Node = strings.TrimSpace(raw.Node)
	}
	if meta.IsDefined("lanes") {
		cfg.Session.Lanes = raw.Lanes
	}
	if meta.IsDefined("max_payload_bytes") {
		cfg.Session.Limits.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("read_retries") {
		if raw.ReadRetries < 0 {
			return server.Config{}, fmt.Errorf("read_retries must be >= 0, got %d", raw.ReadRetries)
		}
		cfg.Session.Budget.MaxConsecutiveFailures = raw.ReadRetries
	}
	if meta.IsDefined("frame_read_timeout") {
		d, err := config.ParseDuration("frame_read_timeout", raw.FrameReadTimeout)
		if err != nil {
			return server.Config{}, err
		}
		cfg.Session.FrameReadTimeout = d
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	return cfg.WithDefaults(), nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		if v := strings.TrimSpace(origin); v != "" {
			out = append(out, v)
		}
	}
	return out
}
