// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

type sliceReader []models.WeatherObservation

func (r sliceReader) WeatherRange(_ context.Context, from, to time.Time) ([]models.WeatherObservation, error) {
	var out []models.WeatherObservation
	for _, w := range r {
		if !w.Timestamp.Before(from) && w.Timestamp.Before(to) {
			out = append(out, w)
		}
	}
	return out, nil
}

func TestStoredSource(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r := sliceReader{
		{Timestamp: day.Add(-time.Hour), Temperature: 1},
		{Timestamp: day, Temperature: 2},
		{Timestamp: day.Add(23 * time.Hour), Temperature: 3},
		{Timestamp: day.Add(24 * time.Hour), Temperature: 4},
	}
	src := StoredSource{Reader: r}

	rows, err := src.Day(context.Background(), day.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Temperature != 2 || rows[1].Temperature != 3 {
		t.Errorf("Day() = %+v, want the two rows of the day", rows)
	}

	if _, err := src.Day(context.Background(), day.AddDate(0, 0, 5)); !errors.Is(err, ErrNoStoredWeather) {
		t.Errorf("Day() error = %v, want ErrNoStoredWeather", err)
	}

	full, err := FallbackSource{Source: src}.Day(context.Background(), day)
	if err != nil {
		t.Fatalf("FallbackSource.Day() error = %v", err)
	}
	if len(full) != 24 || full[1].Temperature != DefaultTemperature {
		t.Errorf("FallbackSource should fill missing hours, got %d rows", len(full))
	}
}
