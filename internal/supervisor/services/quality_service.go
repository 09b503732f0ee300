// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
)

// QualityScorer scores the current model.
type QualityScorer interface {
	Evaluate(ctx context.Context) (models.ModelQuality, error)
}

// QualityService refreshes the model quality gauges.
type QualityService struct {
	scorer   QualityScorer
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewQualityService creates the quality refresher. An interval <= 0 scores
// once at startup only.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewQualityService(scorer QualityScorer, interval time.Duration, logger zerolog.Logger) *QualityService {
	return &QualityService{
		scorer:   scorer,
		interval: interval,
		logger:   logger.With().Str("service", "quality").Logger(),
		name:     "quality-service",
	}
}

// Serve implements suture.Service.
func (s *QualityService) Serve(ctx context.Context) error {
	s.score(ctx)

	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.score(ctx)
		}
	}
}

func (s *QualityService) score(ctx context.Context) {
	q, err := s.scorer.Evaluate(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("model scoring failed")
		}
		return
	}
	metrics.SetModelQuality(q.MAE, q.R2)
	s.logger.Info().
		Float64("mae", q.MAE).
		Float64("r2", q.R2).
		Int("test_rows", q.TestRows).
		Msg("model quality refreshed")
}

// String returns the service name for logging.
func (s *QualityService) String() string {
	return s.name
}
