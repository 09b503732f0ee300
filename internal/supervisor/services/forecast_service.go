// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/veloforecast/internal/models"
)

// ForecastRunner runs the recursive forecaster through a target date.
type ForecastRunner interface {
	RunForecast(ctx context.Context, targetDate time.Time) ([]models.ForecastRecord, error)
}

// ForecastServiceConfig holds configuration for the forecast scheduler.
type ForecastServiceConfig struct {
	// Interval between scheduled runs. Default: 6h
	Interval time.Duration

	// RunOnStartup triggers a run when the service starts.
	RunOnStartup bool

	// HorizonDays is added to today to get the target date.
	HorizonDays int

	// RunTimeout bounds a single run. Default: 30m
	RunTimeout time.Duration

	// Now overrides the wall clock.
	Now func() time.Time
}

// ForecastService runs forecasts on a schedule.
type ForecastService struct {
	runner ForecastRunner
	config ForecastServiceConfig
	logger zerolog.Logger
	name   string
}

// NewForecastService creates the forecast scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewForecastService(runner ForecastRunner, cfg ForecastServiceConfig, logger zerolog.Logger) *ForecastService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ForecastService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "forecast").Logger(),
		name:   "forecast-service",
	}
}

// Serve implements suture.Service. Run failures never stop the service.
func (s *ForecastService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Int("horizon_days", s.config.HorizonDays).
		Msg("forecast service starting")

	if s.config.RunOnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("forecast service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// TargetDate is midnight of today plus the horizon, in UTC.
func (s *ForecastService) TargetDate() time.Time {
	now := s.config.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, s.config.HorizonDays)
}

func (s *ForecastService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	target := s.TargetDate()
	start := time.Now()
	records, err := s.runner.RunForecast(runCtx, target)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Str("target_date", target.Format(time.DateOnly)).Msg("scheduled forecast failed")
		}
		return
	}
	s.logger.Info().
		Str("target_date", target.Format(time.DateOnly)).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("scheduled forecast complete")
}

// String returns the service name for logging.
func (s *ForecastService) String() string {
	return s.name
}
