// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/models"
)

// DefaultBatchSize is the number of rows written per store call.
const DefaultBatchSize = 5000

// ErrImportInProgress is returned when Import is called concurrently.
var ErrImportInProgress = errors.New("import already in progress")

// Store receives imported rows.
type Store interface {
	InsertObservations(ctx context.Context, obs []models.Observation) (int, error)
	InsertWeather(ctx context.Context, rows []models.WeatherObservation) error
}

// ImportStats holds statistics about one import.
type ImportStats struct {
	// Read is the number of CSV rows read, including skipped ones.
	Read int64

	// Inserted is the number of observation rows newly stored. Duplicates
	// of stored keys are ignored by the store and not counted.
	Inserted int64

	// Weather is the number of weather rows upserted.
	Weather int64

	// Skipped is the number of rows that failed to parse or validate.
	Skipped int64

	StartTime time.Time
	EndTime   time.Time
	DryRun    bool
}

// Duration returns the duration of the import.
func (s *ImportStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Options configures an Importer.
type Options struct {
	ObservationsPath string
	WeatherPath      string
	BatchSize        int
	DryRun           bool
}

// Importer loads CSV exports into a Store.
type Importer struct {
	opts   Options
	loader *Loader
	store  Store

	mu      sync.Mutex
	running bool
}

// NewImporter creates an importer. Files are read through loader.
func NewImporter(opts Options, loader *Loader, store Store) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if loader == nil {
		loader = NewLoader(nil)
	}
	return &Importer{opts: opts, loader: loader, store: store}
}

// Import reads the configured files and writes them in batches. An empty
// path skips that file.
func (i *Importer) Import(ctx context.Context) (*ImportStats, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrImportInProgress
	}
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	stats := &ImportStats{StartTime: time.Now(), DryRun: i.opts.DryRun}
	defer func() { stats.EndTime = time.Now() }()

	if i.opts.ObservationsPath == "" && i.opts.WeatherPath == "" {
		return stats, errors.New("nothing to import")
	}

	if i.opts.ObservationsPath != "" {
		if err := i.importObservations(ctx, stats); err != nil {
			return stats, err
		}
	}
	if i.opts.WeatherPath != "" {
		if err := i.importWeather(ctx, stats); err != nil {
			return stats, err
		}
	}

	logging.Info().
		Int64("read", stats.Read).
		Int64("inserted", stats.Inserted).
		Int64("weather", stats.Weather).
		Int64("skipped", stats.Skipped).
		Bool("dry_run", stats.DryRun).
		Dur("duration", time.Since(stats.StartTime)).
		Msg("Import completed")
	return stats, nil
}

func (i *Importer) importObservations(ctx context.Context, stats *ImportStats) error {
	file, err := i.loader.observations(i.opts.ObservationsPath)
	if err != nil {
		return err
	}
	obs := file.Rows
	stats.Read += int64(file.Stats.Rows)
	stats.Skipped += int64(file.Stats.Skipped)

	for start := 0; start < len(obs); start += i.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+i.opts.BatchSize, len(obs))
		if i.opts.DryRun {
			stats.Inserted += int64(end - start)
			continue
		}
		n, err := i.store.InsertObservations(ctx, obs[start:end])
		if err != nil {
			return fmt.Errorf("insert observations %d..%d: %w", start, end, err)
		}
		stats.Inserted += int64(n)
		logging.Debug().Int("batch_end", end).Int("total", len(obs)).Msg("Import progress")
	}
	return nil
}

func (i *Importer) importWeather(ctx context.Context, stats *ImportStats) error {
	file, err := i.loader.weather(i.opts.WeatherPath)
	if err != nil {
		return err
	}
	rows := file.Rows
	stats.Read += int64(file.Stats.Rows)
	stats.Skipped += int64(file.Stats.Skipped)

	for start := 0; start < len(rows); start += i.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+i.opts.BatchSize, len(rows))
		if !i.opts.DryRun {
			if err := i.store.InsertWeather(ctx, rows[start:end]); err != nil {
				return fmt.Errorf("insert weather %d..%d: %w", start, end, err)
			}
		}
		stats.Weather += int64(end - start)
	}
	return nil
}
