// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/veloforecast/internal/cache"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/models"
)

// parsed is one memoized file.
type parsed[T any] struct {
	Rows  []T
	Stats Stats
}

// Loader reads CSV exports from disk, memoizing each file in a cache that
// the caller owns.
type Loader struct {
	cache cache.Cacher
}

// NewLoader returns a loader backed by c. A nil cache disables memoization.
func NewLoader(c cache.Cacher) *Loader {
	return &Loader{cache: c}
}

// Observations parses the bike-counter export at path.
func (l *Loader) Observations(path string) ([]models.Observation, error) {
	p, err := l.observations(path)
	return p.Rows, err
}

// Weather parses the hourly weather export at path.
func (l *Loader) Weather(path string) ([]models.WeatherObservation, error) {
	p, err := l.weather(path)
	return p.Rows, err
}

func (l *Loader) observations(path string) (parsed[models.Observation], error) {
	return cache.GetOrLoad(l.cache, cache.GenerateKey("csv:observations", path), func() (parsed[models.Observation], error) {
		return readFile(path, "observations", ReadObservations)
	})
}

func (l *Loader) weather(path string) (parsed[models.WeatherObservation], error) {
	return cache.GetOrLoad(l.cache, cache.GenerateKey("csv:weather", path), func() (parsed[models.WeatherObservation], error) {
		return readFile(path, "weather", ReadWeather)
	})
}

func readFile[T any](path, kind string, read func(io.Reader) ([]T, Stats, error)) (parsed[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return parsed[T]{}, fmt.Errorf("open %s: %w", kind, err)
	}
	defer closeFile(f)

	rows, stats, err := read(f)
	if err != nil {
		return parsed[T]{}, fmt.Errorf("read %s: %w", path, err)
	}

	evt := logging.Info()
	if stats.Skipped > 0 {
		evt = logging.Warn()
	}
	evt.Str("kind", kind).
		Str("path", path).
		Int("rows", stats.Rows).
		Int("loaded", stats.Loaded).
		Int("skipped", stats.Skipped).
		Msg("CSV loaded")
	return parsed[T]{Rows: rows, Stats: stats}, nil
}

func closeFile(f *os.File) {
	if err := f.Close(); err != nil {
		logging.Warn().Err(err).Str("path", f.Name()).Msg("Error closing CSV file")
	}
}
