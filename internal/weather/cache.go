// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package weather

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/models"
)

// ArchiveCache keeps complete past days so repeated backfills do not call the
// archive API again. Archive values for a finished day do not change.
type ArchiveCache struct {
	db *badger.DB
}

// OpenArchiveCache opens (or creates) the cache at path.
func OpenArchiveCache(path string) (*ArchiveCache, error) {
	if path == "" {
		return nil, errors.New("archive cache path is required")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open weather cache: %w", err)
	}
	logging.Info().Str("path", path).Msg("Weather archive cache opened")
	return &ArchiveCache{db: db}, nil
}

// NewMemoryArchiveCache returns a cache that lives only as long as the process.
func NewMemoryArchiveCache() (*ArchiveCache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory weather cache: %w", err)
	}
	return &ArchiveCache{db: db}, nil
}

func cacheKey(lat, lon float64, day time.Time) []byte {
	return []byte(fmt.Sprintf("archive/%.4f/%.4f/%s", lat, lon, day.Format(time.DateOnly)))
}

// Get returns the cached rows of day, if any.
func (c *ArchiveCache) Get(lat, lon float64, day time.Time) ([]models.WeatherObservation, bool, error) {
	var rows []models.WeatherObservation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(lat, lon, day))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rows)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read weather cache: %w", err)
	}
	return rows, true, nil
}

// Put stores the rows of day.
func (c *ArchiveCache) Put(lat, lon float64, day time.Time, rows []models.WeatherObservation) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal weather rows: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(cacheKey(lat, lon, day), data))
	})
	if err != nil {
		return fmt.Errorf("write weather cache: %w", err)
	}
	return nil
}

// Close releases the underlying store.
func (c *ArchiveCache) Close() error {
	return c.db.Close()
}
