// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package weather supplies hourly covariates (temperature, wind speed,
// precipitation) for whole days, from the Open-Meteo archive for past days
// and the Open-Meteo forecast for today onwards.
package weather

import (
	"context"
	"time"

	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Covariates used when no real weather is available.
const (
	DefaultTemperature   = 12.0
	DefaultWindSpeed     = 10.0
	DefaultPrecipitation = 0.0
)

// Source returns the hourly weather of one day.
type Source interface {
	Day(ctx context.Context, day time.Time) ([]models.WeatherObservation, error)
}

// DefaultDay returns 24 hourly rows of default covariates starting at
// midnight of day.
func DefaultDay(day time.Time) []models.WeatherObservation {
	start := truncateDay(day)
	rows := make([]models.WeatherObservation, 24)
	for h := range rows {
		rows[h] = defaultRow(start.Add(time.Duration(h) * time.Hour))
	}
	return rows
}

func defaultRow(ts time.Time) models.WeatherObservation {
	return models.WeatherObservation{
		Timestamp:     ts,
		Temperature:   DefaultTemperature,
		WindSpeed:     DefaultWindSpeed,
		Precipitation: DefaultPrecipitation,
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FallbackSource never fails a day: if the wrapped source errors, the day is
// served with default covariates, and hours missing from a partial answer are
// filled the same way. Only context cancellation is passed through.
type FallbackSource struct {
	Source Source
}

// Day implements Source.
func (f FallbackSource) Day(ctx context.Context, day time.Time) ([]models.WeatherObservation, error) {
	rows, err := f.Source.Day(ctx, day)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordWeatherFallback()
		logging.Ctx(ctx).Warn().Err(err).
			Str("day", day.Format(time.DateOnly)).
			Msg("Weather unavailable, using default covariates")
		return DefaultDay(day), nil
	}

	full, filled := completeDay(day, rows)
	if filled > 0 {
		metrics.RecordWeatherFallback()
		logging.Ctx(ctx).Warn().
			Str("day", day.Format(time.DateOnly)).
			Int("missing_hours", filled).
			Msg("Partial weather, missing hours use default covariates")
	}
	return full, nil
}

// completeDay returns exactly the 24 hours of day, taking rows where present.
func completeDay(day time.Time, rows []models.WeatherObservation) ([]models.WeatherObservation, int) {
	start := truncateDay(day)
	byHour := make(map[time.Time]models.WeatherObservation, len(rows))
	for _, r := range rows {
		byHour[r.Timestamp.Truncate(time.Hour)] = r
	}

	out := make([]models.WeatherObservation, 24)
	filled := 0
	for h := range out {
		ts := start.Add(time.Duration(h) * time.Hour)
		if r, ok := byHour[ts]; ok {
			r.Timestamp = ts
			out[h] = r
			continue
		}
		out[h] = defaultRow(ts)
		filled++
	}
	return out, filled
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, day time.Time) ([]models.WeatherObservation, error)

// Day implements Source.
func (f SourceFunc) Day(ctx context.Context, day time.Time) ([]models.WeatherObservation, error) {
	return f(ctx, day)
}
