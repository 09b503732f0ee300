// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
database_schema.go - Database Schema Management

Tables:
  - observations: raw counter readings in arrival order (seq). Timestamps are
    stored as received; hourly flooring happens on read.
  - weather: hourly covariates for the configured location.
  - forecasts: append-only forecast records. Every run adds rows under its own
    run_id; readers pick the most recently written row per (entity_id, ts).
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE SEQUENCE IF NOT EXISTS observations_seq START 1`,
	`CREATE SEQUENCE IF NOT EXISTS forecasts_seq START 1`,

	`CREATE TABLE IF NOT EXISTS observations (
		seq BIGINT NOT NULL DEFAULT nextval('observations_seq'),
		entity_id TEXT NOT NULL,
		ts TIMESTAMP NOT NULL,
		count_value DOUBLE NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		PRIMARY KEY (entity_id, ts)
	)`,

	`CREATE TABLE IF NOT EXISTS weather (
		ts TIMESTAMP PRIMARY KEY,
		temperature_2m DOUBLE NOT NULL,
		wind_speed_10m DOUBLE NOT NULL,
		precipitation DOUBLE NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS forecasts (
		seq BIGINT NOT NULL DEFAULT nextval('forecasts_seq'),
		run_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		ts TIMESTAMP NOT NULL,
		predicted_count BIGINT NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_observations_ts ON observations(ts)`,
	`CREATE INDEX IF NOT EXISTS idx_forecasts_key ON forecasts(entity_id, ts)`,
	`CREATE INDEX IF NOT EXISTS idx_forecasts_run ON forecasts(run_id)`,
}
