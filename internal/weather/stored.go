// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package weather

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// ErrNoStoredWeather is returned by StoredSource for a day with no rows.
var ErrNoStoredWeather = errors.New("no stored weather for day")

// RangeReader reads stored hourly weather with from <= ts < to.
type RangeReader interface {
	WeatherRange(ctx context.Context, from, to time.Time) ([]models.WeatherObservation, error)
}

// StoredSource serves days from previously imported weather. It is used for
// offline runs; wrap it in FallbackSource to fill gaps.
type StoredSource struct {
	Reader RangeReader
}

// Day implements Source.
func (s StoredSource) Day(ctx context.Context, day time.Time) ([]models.WeatherObservation, error) {
	start := truncateDay(day)
	rows, err := s.Reader.WeatherRange(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoStoredWeather
	}
	return rows, nil
}
