// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import (
	"context"
	"errors"

	"github.com/tomtom215/veloforecast/internal/models"
)

// Sink receives each forecast day. Writes are append-only; a sink is not
// expected to de-duplicate.
type Sink interface {
	WriteForecasts(ctx context.Context, records []models.ForecastRecord) error
}

// MultiSink writes every batch to all sinks, even when one fails.
type MultiSink []Sink

// WriteForecasts implements Sink.
func (m MultiSink) WriteForecasts(ctx context.Context, records []models.ForecastRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteForecasts(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, records []models.ForecastRecord) error

// WriteForecasts implements Sink.
func (f SinkFunc) WriteForecasts(ctx context.Context, records []models.ForecastRecord) error {
	return f(ctx, records)
}

// Discard drops every record.
var Discard Sink = SinkFunc(func(context.Context, []models.ForecastRecord) error { return nil })
