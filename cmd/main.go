package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leotorrealba/Kratostech-Converter/internal/app"
	"github.com/leotorrealba/Kratostech-Converter/internal/config"
)

const file = "config.json"

func initSentry(cfg *config.SentryConfig, version string) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

func main() {
	cfg := config.NewConfig()
	if err := cfg.Read(file); err != nil {
		log.Fatal(err)
	}
	if err := cfg.LoadEnv(); err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("logger: %s", err)
	}
	defer func() { _ = logger.Sync() }()

	err = initSentry(&cfg.Sentry, "v1")
	if err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}

	// Flush buffered events before the program terminates.
	defer sentry.Flush(2 * time.Second)

	app, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
