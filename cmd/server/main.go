// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/veloforecast/internal/api"
	"github.com/tomtom215/veloforecast/internal/app"
	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/supervisor"
	"github.com/tomtom215/veloforecast/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_path", cfg.Forecast.ModelPath).
		Int("horizon_days", cfg.Forecast.HorizonDays).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting Veloforecast with supervisor tree")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing application")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Forecast layer
	tree.AddForecastService(services.NewForecastService(application.Orchestrator, services.ForecastServiceConfig{
		Interval:     cfg.Forecast.Schedule,
		RunOnStartup: cfg.Forecast.RunOnStartup,
		HorizonDays:  cfg.Forecast.HorizonDays,
	}, logging.WithComponent("scheduler")))
	if cfg.Forecast.QualityInterval > 0 {
		tree.AddForecastService(services.NewQualityService(application, cfg.Forecast.QualityInterval, logging.WithComponent("quality")))
	}

	// API layer
	handler := api.NewHandler(application.DB, application.Orchestrator, application)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server)))
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
