// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/features"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/weather"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type staticSource []models.Observation

func (s staticSource) Observations(context.Context) ([]models.Observation, error) {
	return s, nil
}

// funcModel scores each aligned row with fn.
type funcModel struct {
	names []string
	fn    func(row []float64) float64
}

func (m *funcModel) FeatureNames() []string { return m.names }

func (m *funcModel) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.fn(row)
	}
	return out, nil
}

func loaderFor(m Model) ModelLoader {
	return func(context.Context) (Model, error) { return m, nil }
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.ForecastRecord
	failOn  map[int]bool
}

func (s *recordingSink) WriteForecasts(_ context.Context, records []models.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.batches)
	s.batches = append(s.batches, records)
	if s.failOn[n] {
		return errors.New("disk full")
	}
	return nil
}

// fullDays returns hourly observations for entity over n days from start.
func fullDays(entity string, start time.Time, n int, count float64) []models.Observation {
	var obs []models.Observation
	for h := 0; h < n*24; h++ {
		obs = append(obs, models.Observation{
			EntityID:  entity,
			Timestamp: start.Add(time.Duration(h) * time.Hour),
			Count:     count,
			Latitude:  43.6,
			Longitude: 3.87,
		})
	}
	return obs
}

var sunnyWeather = weather.SourceFunc(func(_ context.Context, day time.Time) ([]models.WeatherObservation, error) {
	rows := weather.DefaultDay(day)
	for i := range rows {
		rows[i].Temperature = 20
	}
	return rows, nil
})

func newTestOrchestrator(t *testing.T, obs []models.Observation, m Model, sink Sink) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(
		Config{Lags: features.DefaultLagSpec()},
		staticSource(obs), sunnyWeather, loaderFor(m), sink,
	)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	return o
}
