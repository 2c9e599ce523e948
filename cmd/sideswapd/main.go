// sideswapd serves the matrix transform protocol on a TCP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/sideswap/internal/logging"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/danmuck/sideswap/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:]); err != nil {
		if protocol.IsFatal(err) {
			log.Fatal().Err(err).Msg("unrecoverable read failure")
		}
		fmt.Fprintf(os.Stderr, "sideswapd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath  string
		listenAddr  string
		lanes       int
		metricsAddr string
	)
	flagSet := pflag.NewFlagSet("sideswapd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a server TOML config")
	flagSet.StringVar(&listenAddr, "listen", server.DefaultListenAddr, "address to accept clients on")
	flagSet.IntVar(&lanes, "lanes", 1, "parallel lanes per transform job")
	flagSet.StringVar(&metricsAddr, "metrics-addr", "", "serve /health, /ready and /metrics on this address")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := loadServerConfig(configPath)
	if err != nil {
		return err
	}
	cfg = applyFlags(cfg, flagSet, listenAddr, lanes, metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := server.NewService(cfg, log.Logger)
	return svc.ListenAndServe(ctx)
}

// applyFlags lets explicitly set flags win over the file.
func applyFlags(cfg server.Config, flagSet *pflag.FlagSet, listenAddr string, lanes int, metricsAddr string) server.Config {
	if flagSet.Changed("listen") {
		cfg.ListenAddr = listenAddr
	}
	if flagSet.Changed("lanes") {
		cfg.Session.Lanes = lanes
	}
	if flagSet.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg.WithDefaults()
}
