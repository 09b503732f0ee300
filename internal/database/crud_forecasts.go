// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// WriteForecasts appends one batch of forecast records in a single
// transaction. Rows from earlier runs are never modified.
func (db *DB) WriteForecasts(ctx context.Context, records []models.ForecastRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "forecasts", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO forecasts
		(run_id, entity_id, ts, predicted_count, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	createdAt := time.Now().UTC()
	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.RunID, r.EntityID, r.Timestamp.UTC(), r.PredictedCount,
			r.Latitude, r.Longitude, createdAt); err != nil {
			return fmt.Errorf("failed to insert forecast %s@%s: %w", r.EntityID, r.Timestamp, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestForecasts returns, for every (entity, hour) with from <= hour < to,
// the value written by the most recent run. An empty entityID selects every
// counter.
func (db *DB) LatestForecasts(ctx context.Context, entityID string, from, to time.Time) (points []models.SeriesPoint, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "forecasts", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id, ts, CAST(predicted_count AS DOUBLE),
		COALESCE(latitude, 0), COALESCE(longitude, 0)
		FROM forecasts
		WHERE ts >= ? AND ts < ?`+entityFilter(entityID)+`
		QUALIFY row_number() OVER (PARTITION BY entity_id, ts ORDER BY seq DESC) = 1
		ORDER BY entity_id, ts`,
		rangeArgs(entityID, from, to)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanSeries(rows)
}

// ForecastRunCount returns the number of distinct runs stored.
func (db *DB) ForecastRunCount(ctx context.Context) (n int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "forecasts", start, err) }()

	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(DISTINCT run_id) FROM forecasts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count forecast runs: %w", err)
	}
	return n, nil
}
