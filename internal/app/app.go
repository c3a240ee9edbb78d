package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/config"
	"github.com/leotorrealba/Kratostech-Converter/internal/docservice"
	svg_converter "github.com/leotorrealba/Kratostech-Converter/internal/svg-converter"
	"github.com/leotorrealba/Kratostech-Converter/internal/tracer"
	"github.com/leotorrealba/Kratostech-Converter/internal/transport/handler"
	"github.com/leotorrealba/Kratostech-Converter/internal/transport/router"
	use_case "github.com/leotorrealba/Kratostech-Converter/internal/use-case"
	webp_converter "github.com/leotorrealba/Kratostech-Converter/internal/webp-converter"
)

type App struct {
	HttpServer *http.Server
	cfg        *config.Config
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	docs := docservice.New(docservice.Options{
		URL:               cfg.Converter.ServiceURL,
		Timeout:           cfg.Converter.Timeout * time.Second,
		Deadline:          cfg.RelayDeadline(),
		MaxAttempts:       cfg.Converter.MaxAttempts,
		RetryBaseDelay:    cfg.Converter.RetryBaseDelayMS * time.Millisecond,
		RequestsPerSecond: cfg.Converter.RequestsPerSecond,
	}, logger.Named("docservice"))
	if !docs.Configured() {
		logger.Warn("conversion service url not set, word-to-pdf requests will fail")
	}

	turnPolicy, err := tracer.ParseTurnPolicy(cfg.Image.TurnPolicy)
	if err != nil {
		return nil, err
	}
	svg := svg_converter.Converter{TurnPolicy: turnPolicy}

	uc := use_case.New(webp_converter.Converter{}, svg, docs, cfg.Image.MaxPixels(), logger.Named("usecase"))

	h := handler.New(uc, cfg, logger.Named("handler"))
	r := router.NewRouter(h, cfg, logger.Named("http"))

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout * time.Second,
	}

	return &App{
		HttpServer: s,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("addr", a.HttpServer.Addr))
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
