// configgen writes or validates sideswap TOML config files.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/sideswap/internal/config"
	"github.com/danmuck/sideswap/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		kind     string
		output   string
		validate bool
		input    string
		force    bool
	)
	flagSet := pflag.NewFlagSet("configgen", pflag.ContinueOnError)
	flagSet.StringVar(&kind, "kind", config.KindServer, "config kind: server|client")
	flagSet.StringVar(&output, "output", "", "output path for config template (defaults to per-kind cmd path)")
	flagSet.BoolVar(&validate, "validate", false, "validate an existing config file")
	flagSet.StringVar(&input, "input", "", "config path for validation (defaults to per-kind cmd path)")
	flagSet.BoolVar(&force, "force", false, "overwrite existing config file")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if validate {
		path := input
		if path == "" {
			p, err := config.DefaultPath(kind)
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.Validate(kind, path); err != nil {
			return err
		}
		log.Info().Str("kind", kind).Str("path", path).Msg("validated config")
		return nil
	}

	target := output
	if target == "" {
		p, err := config.DefaultPath(kind)
		if err != nil {
			return err
		}
		target = p
	}
	if err := config.WriteTemplate(target, kind, force); err != nil {
		return err
	}
	log.Info().Str("kind", kind).Str("path", target).Msg("wrote config template")
	return nil
}
