package main

import (
	"context"
	"os"

	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotEnv(".env"); err != nil {
		logger.Warn("ignoring .env", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger, Getenv: os.Getenv})

	app := &cli.Command{
		Name:     "tallyho",
		Usage:    "Multi-user to-do lists with local, Google & Facebook sign-in",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
