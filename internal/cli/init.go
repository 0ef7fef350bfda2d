// Package cli provides common CLI initialization utilities.
// This package consolidates the bootstrap shared by cmd/saldo and
// cmd/saldo-auth: env file, logger, config, wiring and shutdown.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"saldo/internal/backend"
	"saldo/internal/config"
	"saldo/internal/ledger"
	"saldo/internal/log"
	"saldo/internal/parser"
	"saldo/internal/parser/gemini"
	"saldo/internal/store"
	"saldo/internal/syncer"
	"saldo/internal/telemetry"
)

const serviceName = "saldo"

// SetupLogger initializes structured logging at the given level, writing to w.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string, w io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired ledger together with the resources it owns.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.Result
	Store   *store.Store
	Ledger  *ledger.Ledger

	shutdownTracing func(context.Context) error
	now             func() time.Time
	newParser       func(context.Context) (parser.Parser, error)
}

// Bootstrap builds the backend, opens the record store and assembles the
// ledger. The push queue is started; call Close to flush and release.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, serviceName, cfg.DeviceName)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("create backend: %w", err)
	}

	st, err := store.Open(ctx, res.Local, store.WithLogger(logger))
	if err != nil {
		_ = res.Cleanup()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine := syncer.New(res.Connector,
		syncer.WithLogger(logger),
		syncer.WithTracerProvider(otel.GetTracerProvider()),
	)

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if res.Notifier != nil {
		opts = append(opts, ledger.WithNotifier(res.Notifier))
	}
	l := ledger.New(st, engine, ledger.Config{
		QueueSize: cfg.PushQueueSize,
		Workers:   cfg.PushWorkers,
		Origin:    cfg.DeviceName,
	}, opts...)
	if err := l.Start(ctx); err != nil {
		_ = res.Cleanup()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("start ledger: %w", err)
	}

	return &App{
		Config:          cfg,
		Logger:          logger,
		Backend:         res,
		Store:           st,
		Ledger:          l,
		shutdownTracing: shutdownTracing,
		now:             time.Now,
		newParser: func(ctx context.Context) (parser.Parser, error) {
			return gemini.New(ctx, cfg.GeminiModel, logger)
		},
	}, nil
}

// Close drains pending pushes, then releases the backend and the tracer.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Ledger.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush pushes: %w", err))
	}
	if err := a.Backend.Cleanup(); err != nil {
		errs = append(errs, err)
	}
	if err := a.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
			return
		}
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
