package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"saldo/internal/cli"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so command output stays pipeable.
	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	runErr := app.Run(ctx, os.Args[1:], os.Stdout)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := app.Close(closeCtx); err != nil {
		logger.Warn("Cleanup finished with errors", "error", err)
	}
	cancel()

	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		if errors.Is(runErr, cli.ErrUnknownCommand) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
