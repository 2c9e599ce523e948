// sideswapctl uploads a generated matrix to sideswapd and drives the job from
// an interactive console, or with --auto, to completion without prompting.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/sideswap/internal/client"
	"github.com/danmuck/sideswap/internal/logging"
	"github.com/danmuck/sideswap/internal/matrix"
	"github.com/danmuck/sideswap/internal/protocol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if protocol.IsFatal(err) {
			log.Fatal().Err(err).Msg("unrecoverable read failure")
		}
		fmt.Fprintf(os.Stderr, "sideswapctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	var (
		configPath string
		addr       string
		size       int
		seed       int64
		auto       bool
	)
	flagSet := pflag.NewFlagSet("sideswapctl", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a client TOML config")
	flagSet.StringVar(&addr, "addr", client.DefaultConfig().ServerAddr, "server address")
	flagSet.IntVar(&size, "size", 10, "side length of the generated matrix")
	flagSet.Int64Var(&seed, "seed", 0, "matrix generator seed (0 = time based)")
	flagSet.BoolVar(&auto, "auto", false, "start, poll and print the result without prompting")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("addr") {
		cfg.Client.ServerAddr = addr
	}
	if flagSet.Changed("size") {
		cfg.MatrixSize = size
	}
	if flagSet.Changed("seed") {
		cfg.MatrixSeed = seed
	}
	if cfg.MatrixSize < 1 {
		return fmt.Errorf("matrix size must be >= 1, got %d", cfg.MatrixSize)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, cfg.Client, log.Logger)
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Fprintln(out, "Connected to server.")

	if cfg.MatrixSeed == 0 {
		cfg.MatrixSeed = time.Now().UnixNano()
	}
	m := matrix.Random(cfg.MatrixSize, rand.New(rand.NewSource(cfg.MatrixSeed)))
	if err := c.Upload(m); err != nil {
		return err
	}
	log.Info().Int("n", cfg.MatrixSize).Int64("seed", cfg.MatrixSeed).Msg("matrix uploaded")

	if auto {
		return runAuto(ctx, c, cfg.Client.PollInterval, out)
	}
	return client.RunConsole(ctx, c, in, out)
}

// runAuto starts the job, waits for a terminal status and prints the result.
func runAuto(ctx context.Context, c *client.Client, interval time.Duration, out io.Writer) error {
	status, err := c.Start()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Received status: %s\n", status)
	if status == protocol.StatusErr {
		return fmt.Errorf("start rejected")
	}

	status, err = c.Await(ctx, interval)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Received status: %s\n", status)
	if status != protocol.StatusCompleted {
		return fmt.Errorf("job finished with status %s", status)
	}

	status, result, err := c.Result()
	if err != nil {
		return err
	}
	if status != protocol.StatusCompleted {
		return fmt.Errorf("result unavailable: %s", status)
	}
	fmt.Fprintln(out, result.String())
	return nil
}
