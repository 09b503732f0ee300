// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/models"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: MemoryPath, MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewCreatesFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "velo.duckdb")
	db, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestInsertObservationsFirstWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n, err := db.InsertObservations(ctx, []models.Observation{
		{EntityID: "A", Timestamp: base, Count: 5, Latitude: 43.6, Longitude: 3.8},
		{EntityID: "A", Timestamp: base, Count: 99},
		{EntityID: "B", Timestamp: base.Add(time.Hour), Count: 7},
	})
	if err != nil {
		t.Fatalf("InsertObservations() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	obs, err := db.Observations(ctx)
	if err != nil {
		t.Fatalf("Observations() error = %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("Observations() returned %d rows, want 2", len(obs))
	}
	if obs[0].EntityID != "A" || obs[0].Count != 5 {
		t.Errorf("obs[0] = %+v, want A with count 5", obs[0])
	}
	if !obs[0].Timestamp.Equal(base) {
		t.Errorf("obs[0].Timestamp = %v, want %v", obs[0].Timestamp, base)
	}
}

func TestEntities(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.InsertObservations(ctx, []models.Observation{
		{EntityID: "B", Timestamp: base, Count: 1, Latitude: 1, Longitude: 2},
		{EntityID: "A", Timestamp: base, Count: 1, Latitude: 3, Longitude: 4},
		{EntityID: "A", Timestamp: base.Add(time.Hour), Count: 1, Latitude: 5, Longitude: 6},
	})
	if err != nil {
		t.Fatalf("InsertObservations() error = %v", err)
	}

	entities, err := db.Entities(ctx)
	if err != nil {
		t.Fatalf("Entities() error = %v", err)
	}
	if len(entities) != 2 || entities[0].ID != "A" || entities[1].ID != "B" {
		t.Fatalf("Entities() = %+v", entities)
	}
	if entities[0].Latitude != 5 || entities[0].Longitude != 6 {
		t.Errorf("A coordinates = %v,%v, want latest 5,6", entities[0].Latitude, entities[0].Longitude)
	}
}

func TestRealSeriesFloorsToHour(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.InsertObservations(ctx, []models.Observation{
		{EntityID: "A", Timestamp: base.Add(10 * time.Minute), Count: 3},
		{EntityID: "A", Timestamp: base.Add(5 * time.Minute), Count: 8},
		{EntityID: "A", Timestamp: base.Add(2 * time.Hour), Count: 4},
		{EntityID: "B", Timestamp: base, Count: 1},
	})
	if err != nil {
		t.Fatalf("InsertObservations() error = %v", err)
	}

	points, err := db.RealSeries(ctx, "A", base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("RealSeries() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("RealSeries() returned %d points, want 2", len(points))
	}
	if !points[0].Timestamp.Equal(base) || points[0].Value != 3 {
		t.Errorf("points[0] = %+v, want first received value 3 at %v", points[0], base)
	}

	all, err := db.RealSeries(ctx, "", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("RealSeries(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("RealSeries(all) returned %d points, want 2", len(all))
	}
}

func TestWeatherUpsertAndRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []models.WeatherObservation{
		{Timestamp: base, Temperature: 10, WindSpeed: 3, Precipitation: 0},
		{Timestamp: base.Add(time.Hour), Temperature: 11, WindSpeed: 4, Precipitation: 0.2},
	}
	if err := db.InsertWeather(ctx, rows); err != nil {
		t.Fatalf("InsertWeather() error = %v", err)
	}
	if err := db.InsertWeather(ctx, []models.WeatherObservation{{Timestamp: base, Temperature: 15, WindSpeed: 1}}); err != nil {
		t.Fatalf("InsertWeather(update) error = %v", err)
	}

	got, err := db.WeatherRange(ctx, base, time.Time{})
	if err != nil {
		t.Fatalf("WeatherRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("WeatherRange() returned %d rows, want 2", len(got))
	}
	if got[0].Temperature != 15 {
		t.Errorf("got[0].Temperature = %v, want 15 after upsert", got[0].Temperature)
	}

	got, err = db.WeatherRange(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("WeatherRange() error = %v", err)
	}
	if len(got) != 1 || got[0].Precipitation != 0.2 {
		t.Errorf("WeatherRange(bounded) = %+v", got)
	}
}

func TestForecastsAppendOnlyLatestWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := []models.ForecastRecord{
		{RunID: "run1", EntityID: "A", Timestamp: base, PredictedCount: 10},
		{RunID: "run1", EntityID: "A", Timestamp: base.Add(time.Hour), PredictedCount: 11},
	}
	second := []models.ForecastRecord{
		{RunID: "run2", EntityID: "A", Timestamp: base, PredictedCount: 20},
	}
	if err := db.WriteForecasts(ctx, first); err != nil {
		t.Fatalf("WriteForecasts(first) error = %v", err)
	}
	if err := db.WriteForecasts(ctx, second); err != nil {
		t.Fatalf("WriteForecasts(second) error = %v", err)
	}

	runs, err := db.ForecastRunCount(ctx)
	if err != nil {
		t.Fatalf("ForecastRunCount() error = %v", err)
	}
	if runs != 2 {
		t.Errorf("ForecastRunCount() = %d, want 2", runs)
	}

	points, err := db.LatestForecasts(ctx, "", base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("LatestForecasts() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("LatestForecasts() returned %d points, want 2", len(points))
	}
	if points[0].Value != 20 {
		t.Errorf("points[0].Value = %v, want 20 from the newest run", points[0].Value)
	}
	if points[1].Value != 11 {
		t.Errorf("points[1].Value = %v, want 11", points[1].Value)
	}
}

func TestEmptyBatchesAreNoops(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if n, err := db.InsertObservations(ctx, nil); err != nil || n != 0 {
		t.Errorf("InsertObservations(nil) = %d, %v", n, err)
	}
	if err := db.InsertWeather(ctx, nil); err != nil {
		t.Errorf("InsertWeather(nil) error = %v", err)
	}
	if err := db.WriteForecasts(ctx, nil); err != nil {
		t.Errorf("WriteForecasts(nil) error = %v", err)
	}
}

func TestEnsureContextAddsDeadline(t *testing.T) {
	db := setupTestDB(t)

	ctx, cancel := db.ensureContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("ensureContext() should add a deadline")
	}

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()
	ctx2, cancel2 := db.ensureContext(parent)
	defer cancel2()
	if ctx2 != parent {
		t.Error("ensureContext() should keep a context that already has a deadline")
	}
}
