// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/database"
	"github.com/tomtom215/veloforecast/internal/events"
	"github.com/tomtom215/veloforecast/internal/model"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/weather"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Path: database.MemoryPath, MaxMemory: "256MB", Threads: 1},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
		Forecast: config.ForecastConfig{
			ModelPath:     filepath.Join(t.TempDir(), "model.json"),
			HorizonDays:   1,
			Lags:          []int{24, 48, 168},
			RollingWindow: 4,
			RollingOffset: 24,
			RollingStep:   24,
			Country:       "FR",
		},
		Events: config.EventsConfig{Enabled: true, Topic: "forecast.records"},
	}
}

var defaultWeather = weather.SourceFunc(func(_ context.Context, day time.Time) ([]models.WeatherObservation, error) {
	return weather.DefaultDay(day), nil
})

// history is three weeks of two counters with a daily shape and some noise.
func history(days int) []models.Observation {
	var obs []models.Observation
	for e, id := range []string{"A", "B"} {
		for h := 0; h < days*24; h++ {
			ts := start.Add(time.Duration(h) * time.Hour)
			d := h / 24
			count := 10 + 3*float64(ts.Hour()) + 5*float64(e) + float64((d*d+h)%7)
			if ts.Weekday() == time.Sunday {
				count /= 2
			}
			obs = append(obs, models.Observation{EntityID: id, Timestamp: ts, Count: count, Latitude: 43.6, Longitude: 3.8})
		}
	}
	return obs
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(t), WithWeatherSource(defaultWeather))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return a
}

func TestLagSpecFromConfig(t *testing.T) {
	spec := LagSpec(testConfig(t).Forecast)
	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if spec.MaxDepth() != 168 {
		t.Errorf("MaxDepth() = %d, want 168", spec.MaxDepth())
	}
}

func TestNewRejectsUnknownCountry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Forecast.Country = "XX"
	if _, err := New(cfg, WithWeatherSource(defaultWeather)); err == nil {
		t.Error("New() should reject an unsupported holiday country")
	}
}

func TestTrainRunAndEvaluate(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if a.Publisher == nil || a.Publisher.Backend() != events.BackendChannel {
		t.Fatalf("expected the in-process publisher")
	}

	if _, err := a.Orchestrator.RunForecast(ctx, start.AddDate(0, 0, 22)); err == nil {
		t.Fatal("RunForecast() on an empty store should fail")
	}

	if _, err := a.DB.InsertObservations(ctx, history(21)); err != nil {
		t.Fatalf("InsertObservations() error = %v", err)
	}

	if _, err := a.LoadModel(ctx); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("LoadModel() before training error = %v, want ErrNotFound", err)
	}
	if _, ok := a.Quality(); ok {
		t.Error("Quality() reported a score before training")
	}

	m, q, err := a.Train(ctx)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(m.FeatureNames()) != len(model.DefaultFeatureNames) {
		t.Errorf("trained on %d features, want %d", len(m.FeatureNames()), len(model.DefaultFeatureNames))
	}
	if q.TestRows == 0 || q.TrainRows == 0 {
		t.Errorf("quality = %+v, want both splits populated", q)
	}
	if got, ok := a.Quality(); !ok || got.MAE != q.MAE {
		t.Errorf("Quality() = %+v, %v; want the training score", got, ok)
	}

	target := start.AddDate(0, 0, 22)
	res, err := a.Orchestrator.Run(ctx, target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Days != 2 || len(res.Records) != 2*2*24 {
		t.Errorf("Days = %d, records = %d; want 2 and 96", res.Days, len(res.Records))
	}

	stored, err := a.DB.LatestForecasts(ctx, "", start.AddDate(0, 0, 21), target.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("LatestForecasts() error = %v", err)
	}
	if len(stored) != len(res.Records) {
		t.Errorf("stored %d forecasts, want %d", len(stored), len(res.Records))
	}

	eq, err := a.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if eq.TestRows != q.TestRows {
		t.Errorf("Evaluate() scored %d rows, want %d", eq.TestRows, q.TestRows)
	}
}

func TestOfflineWeatherReadsStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Events.Enabled = false
	a, err := New(cfg, WithOfflineWeather())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Publisher != nil {
		t.Error("publisher created with events disabled")
	}
	if a.archive != nil {
		t.Error("offline mode should not open the weather cache")
	}
}
