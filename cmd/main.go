package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "err", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "plshuffle",
		Usage:    "Shuffle a Spotify playlist into a new playlist",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, errReported):
			stop()
			os.Exit(1)
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
