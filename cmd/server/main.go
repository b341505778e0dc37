package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/enviro-risk-service/internal/adapter/airnow"
	httpadapter "github.com/couchcryptid/enviro-risk-service/internal/adapter/http"
	"github.com/couchcryptid/enviro-risk-service/internal/adapter/onnx"
	"github.com/couchcryptid/enviro-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/enviro-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/enviro-risk-service/internal/aggregator"
	"github.com/couchcryptid/enviro-risk-service/internal/config"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Missing upstream keys are a degraded mode, not a startup failure: the
	// affected sections report in-band errors per request.
	if cfg.AirNowAPIKey == "" {
		logger.Warn("AIRNOW_API_KEY is not set; air quality sections will be unavailable")
	}
	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set; weather and risk operations will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := postgres.NewStore(db, logger, metrics)

	// The classifier is load-once: a missing or unreadable artifact fails
	// startup rather than surfacing per-request.
	model, err := onnx.LoadModel(cfg.ModelPath, cfg.OnnxLibraryPath, logger, metrics)
	if err != nil {
		logger.Error("failed to load risk model", "error", err, "path", cfg.ModelPath)
		os.Exit(1)
	}

	airClient := airnow.NewClient(cfg.AirNowAPIKey, cfg.UpstreamTimeout, logger, metrics)
	weatherClient := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.UpstreamTimeout, logger, metrics)

	svc := aggregator.New(store, airClient, weatherClient, model, cfg, logger, metrics, clockwork.NewRealClock())

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := model.Close(); err != nil {
		logger.Error("model close error", "error", err)
	}

	logger.Info("shutdown complete")
}
