// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"context"
	"time"

	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Store is the read side of the database used by the handlers.
type Store interface {
	forecast.SeriesReader
	Ping(ctx context.Context) error
	ForecastRunCount(ctx context.Context) (int, error)
	Entities(ctx context.Context) ([]models.Entity, error)
}

// Runner triggers a forecast run without queueing behind a running one.
type Runner interface {
	TryRun(ctx context.Context, targetDate time.Time) (*forecast.Result, error)
}

// QualitySource reports the latest hold-out score, if any.
type QualitySource interface {
	Quality() (models.ModelQuality, bool)
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_health.go: health and model quality
//   - handlers_series.go: counters, history and reconciled series
//   - handlers_forecast.go: on-demand forecast runs
type Handler struct {
	store     Store
	runner    Runner
	quality   QualitySource
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the API handler. runner and quality may be nil, in
// which case the corresponding routes answer 503 and 404.
func NewHandler(store Store, runner Runner, quality QualitySource) *Handler {
	return &Handler{
		store:     store,
		runner:    runner,
		quality:   quality,
		startTime: time.Now(),
		now:       time.Now,
	}
}
