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

// InsertWeather upserts hourly weather rows. Newer values replace older ones
// for the same hour.
func (db *DB) InsertWeather(ctx context.Context, rows []models.WeatherObservation) (err error) {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "weather", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO weather
		(ts, temperature_2m, wind_speed_10m, precipitation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ts) DO UPDATE SET
			temperature_2m = EXCLUDED.temperature_2m,
			wind_speed_10m = EXCLUDED.wind_speed_10m,
			precipitation = EXCLUDED.precipitation`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, w := range rows {
		if _, err = stmt.ExecContext(ctx, w.Timestamp.UTC().Truncate(time.Hour), w.Temperature, w.WindSpeed, w.Precipitation); err != nil {
			return fmt.Errorf("failed to insert weather at %s: %w", w.Timestamp, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WeatherRange returns stored weather with from <= ts < to, oldest first.
// A zero to means no upper bound.
func (db *DB) WeatherRange(ctx context.Context, from, to time.Time) (out []models.WeatherObservation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "weather", start, err) }()

	upper := to.UTC()
	if to.IsZero() {
		upper = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT ts, temperature_2m, wind_speed_10m, precipitation
		FROM weather WHERE ts >= ? AND ts < ? ORDER BY ts`, from.UTC(), upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var w models.WeatherObservation
		if err = rows.Scan(&w.Timestamp, &w.Temperature, &w.WindSpeed, &w.Precipitation); err != nil {
			return nil, fmt.Errorf("failed to scan weather: %w", err)
		}
		out = append(out, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read weather: %w", err)
	}
	return out, nil
}
