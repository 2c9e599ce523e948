package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/sideswap/internal/client"
	"github.com/danmuck/sideswap/internal/server"
	"github.com/pelletier/go-toml/v2"
)

const (
	KindServer = "server"
	KindClient = "client"
)

var ErrUnknownKind = errors.New("config: unknown kind")

// ServerFile is the on-disk shape of the sideswapd config.
type ServerFile struct {
	ListenAddr       string   `toml:"listen_addr"`
	Node             string   `toml:"node"`
	Lanes            int      `toml:"lanes"`
	MaxPayloadBytes  uint32   `toml:"max_payload_bytes"`
	ReadRetries      int      `toml:"read_retries"`
	FrameReadTimeout string   `toml:"frame_read_timeout"`
	MetricsAddr      string   `toml:"metrics_addr"`
	CorsOrigins      []string `toml:"cors_origins"`
}

// ClientFile is the on-disk shape of the sideswapctl config.
type ClientFile struct {
	ServerAddr       string `toml:"server_addr"`
	MatrixSize       int    `toml:"matrix_size"`
	MatrixSeed       int64  `toml:"matrix_seed"`
	ConnectTimeout   string `toml:"connect_timeout"`
	ReadRetries      int    `toml:"read_retries"`
	MaxPayloadBytes  uint32 `toml:"max_payload_bytes"`
	FrameReadTimeout string `toml:"frame_read_timeout"`
	PollInterval     string `toml:"poll_interval"`
}

// DefaultMatrixSize is the side length of the generated client matrix.
const DefaultMatrixSize = 10

func DefaultServerFile() ServerFile {
	d := server.DefaultConfig()
	return ServerFile{
		ListenAddr:       d.ListenAddr,
		Node:             d.Node,
		Lanes:            d.Session.Lanes,
		MaxPayloadBytes:  d.Session.Limits.MaxPayloadBytes,
		ReadRetries:      d.Session.Budget.MaxConsecutiveFailures,
		FrameReadTimeout: "0s",
		MetricsAddr:      "",
		CorsOrigins:      []string{"http://localhost:3000"},
	}
}

func DefaultClientFile() ClientFile {
	d := client.DefaultConfig()
	return ClientFile{
		ServerAddr:       d.ServerAddr,
		MatrixSize:       DefaultMatrixSize,
		MatrixSeed:       0,
		ConnectTimeout:   d.ConnectTimeout.String(),
		ReadRetries:      d.Budget.MaxConsecutiveFailures,
		MaxPayloadBytes:  d.Limits.MaxPayloadBytes,
		FrameReadTimeout: "0s",
		PollInterval:     d.PollInterval.String(),
	}
}

// LoadServerFile decodes path over DefaultServerFile, so absent keys keep
// their defaults.
func LoadServerFile(path string) (ServerFile, error) {
	cfg := DefaultServerFile()
	if err := loadStrict(path, &cfg); err != nil {
		return ServerFile{}, err
	}
	if err := ValidateServerFile(cfg); err != nil {
		return ServerFile{}, err
	}
	return cfg, nil
}

func LoadClientFile(path string) (ClientFile, error) {
	cfg := DefaultClientFile()
	if err := loadStrict(path, &cfg); err != nil {
		return ClientFile{}, err
	}
	if err := ValidateClientFile(cfg); err != nil {
		return ClientFile{}, err
	}
	return cfg, nil
}

// Validate loads path as kind and reports the first problem found.
func Validate(kind, path string) error {
	switch normalizeKind(kind) {
	case KindServer:
		_, err := LoadServerFile(path)
		return err
	case KindClient:
		_, err := LoadClientFile(path)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// loadStrict rejects keys the target struct does not declare.
func loadStrict(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): %s", path, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerFile(cfg ServerFile) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("server config missing listen_addr")
	}
	if cfg.Lanes < 0 {
		return fmt.Errorf("server config lanes must be >= 0, got %d", cfg.Lanes)
	}
	if cfg.ReadRetries < 0 {
		return fmt.Errorf("server config read_retries must be >= 0, got %d", cfg.ReadRetries)
	}
	if _, err := ParseDuration("frame_read_timeout", cfg.FrameReadTimeout); err != nil {
		return err
	}
	return nil
}

func ValidateClientFile(cfg ClientFile) error {
	if strings.TrimSpace(cfg.ServerAddr) == "" {
		return fmt.Errorf("client config missing server_addr")
	}
	if cfg.MatrixSize < 1 {
		return fmt.Errorf("client config matrix_size must be >= 1, got %d", cfg.MatrixSize)
	}
	if cfg.ReadRetries < 0 {
		return fmt.Errorf("client config read_retries must be >= 0, got %d", cfg.ReadRetries)
	}
	for key, raw := range map[string]string{
		"connect_timeout":    cfg.ConnectTimeout,
		"frame_read_timeout": cfg.FrameReadTimeout,
		"poll_interval":      cfg.PollInterval,
	} {
		if _, err := ParseDuration(key, raw); err != nil {
			return err
		}
	}
	return nil
}

// ParseDuration accepts an empty value as zero.
func ParseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", key, raw)
	}
	return d, nil
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
