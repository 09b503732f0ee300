// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/veloforecast/internal/cache"
	"github.com/tomtom215/veloforecast/internal/models"
)

type memStore struct {
	obs     []models.Observation
	weather []models.WeatherObservation
	calls   int
	err     error
}

func (s *memStore) InsertObservations(_ context.Context, obs []models.Observation) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.obs = append(s.obs, obs...)
	return len(obs), nil
}

func (s *memStore) InsertWeather(_ context.Context, rows []models.WeatherObservation) error {
	s.weather = append(s.weather, rows...)
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

const observationsCSV = "counter_id,datetime,intensity\n" +
	"A,2024-01-01 00:00:00,1\n" +
	"A,2024-01-01 01:00:00,2\n" +
	"B,2024-01-01 00:00:00,3\n" +
	"B,bad,4\n" +
	"B,2024-01-01 01:00:00,5\n"

func TestImporterBatches(t *testing.T) {
	obsPath := writeFile(t, "velo.csv", observationsCSV)
	wxPath := writeFile(t, "meteo.csv", "datetime,temperature_2m\n2024-01-01 00:00:00,3.5\n")
	store := &memStore{}

	imp := NewImporter(Options{ObservationsPath: obsPath, WeatherPath: wxPath, BatchSize: 2}, nil, store)
	stats, err := imp.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if store.calls != 2 {
		t.Errorf("insert calls = %d, want 2 batches", store.calls)
	}
	if stats.Inserted != 4 || stats.Skipped != 1 || stats.Weather != 1 || stats.Read != 6 {
		t.Errorf("stats = %+v", stats)
	}
	if len(store.weather) != 1 || store.weather[0].Temperature != 3.5 {
		t.Errorf("weather = %+v", store.weather)
	}
	if stats.EndTime.IsZero() {
		t.Error("EndTime not set")
	}
}

func TestImporterDryRun(t *testing.T) {
	store := &memStore{}
	imp := NewImporter(Options{ObservationsPath: writeFile(t, "velo.csv", observationsCSV), DryRun: true}, nil, store)

	stats, err := imp.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if store.calls != 0 {
		t.Errorf("dry run wrote %d batches", store.calls)
	}
	if stats.Inserted != 4 {
		t.Errorf("Inserted = %d, want 4", stats.Inserted)
	}
}

func TestImporterErrors(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	imp := NewImporter(Options{ObservationsPath: writeFile(t, "velo.csv", observationsCSV)}, nil, store)
	if _, err := imp.Import(context.Background()); err == nil {
		t.Error("Import() should surface store errors")
	}

	if _, err := NewImporter(Options{}, nil, store).Import(context.Background()); err == nil {
		t.Error("Import() without paths should fail")
	}

	missing := NewImporter(Options{ObservationsPath: filepath.Join(t.TempDir(), "nope.csv")}, nil, &memStore{})
	if _, err := missing.Import(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Import() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoaderMemoizes(t *testing.T) {
	path := writeFile(t, "velo.csv", observationsCSV)
	c := cache.New()
	l := NewLoader(c)

	first, err := l.Observations(path)
	if err != nil {
		t.Fatalf("Observations() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := l.Observations(path)
	if err != nil {
		t.Fatalf("memoized Observations() error = %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("memoized rows = %d, want %d", len(second), len(first))
	}

	c.Clear()
	if _, err := l.Observations(path); err == nil {
		t.Error("Observations() after Clear should re-read the removed file")
	}
}
