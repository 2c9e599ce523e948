package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const templateHeader = "# generated by configgen; every key is optional and falls back to the value shown\n\n"

// Template renders the defaults for kind as TOML.
func Template(kind string) (string, error) {
	var v any
	switch normalizeKind(kind) {
	case KindServer:
		v = DefaultServerFile()
	case KindClient:
		v = DefaultClientFile()
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	out, err := toml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return templateHeader + string(out), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// DefaultPath is where configgen writes and validates kind by default.
func DefaultPath(kind string) (string, error) {
	switch normalizeKind(kind) {
	case KindServer:
		return "cmd/sideswapd/config.toml", nil
	case KindClient:
		return "cmd/sideswapctl/config.toml", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
