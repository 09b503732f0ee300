// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// InsertObservations appends observations in slice order. A reading whose
// (entity_id, ts) is already stored is skipped, so the first one wins.
// It returns the number of rows inserted.
func (db *DB) InsertObservations(ctx context.Context, obs []models.Observation) (inserted int, err error) {
	if len(obs) == 0 {
		return 0, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "observations", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackOnError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations
		(entity_id, ts, count_value, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for _, o := range obs {
		res, execErr := stmt.ExecContext(ctx, o.EntityID, o.Timestamp.UTC(), o.Count, o.Latitude, o.Longitude)
		if execErr != nil {
			err = fmt.Errorf("failed to insert observation %s@%s: %w", o.EntityID, o.Timestamp, execErr)
			return 0, err
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			inserted += int(n)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// Observations returns the full history in arrival order.
func (db *DB) Observations(ctx context.Context) (obs []models.Observation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "observations", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id, ts, count_value,
		COALESCE(latitude, 0), COALESCE(longitude, 0)
		FROM observations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var o models.Observation
		if err = rows.Scan(&o.EntityID, &o.Timestamp, &o.Count, &o.Latitude, &o.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs = append(obs, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return obs, nil
}

// Entities lists every counter with its most recent coordinates.
func (db *DB) Entities(ctx context.Context) (entities []models.Entity, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "observations", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id,
		COALESCE(arg_max(latitude, ts), 0), COALESCE(arg_max(longitude, ts), 0)
		FROM observations GROUP BY entity_id ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var e models.Entity
		if err = rows.Scan(&e.ID, &e.Latitude, &e.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entities: %w", err)
	}
	return entities, nil
}

// RealSeries returns observed hourly values with from <= hour < to. Readings
// inside the same hour resolve to the first one received. An empty entityID
// selects every counter.
func (db *DB) RealSeries(ctx context.Context, entityID string, from, to time.Time) (points []models.SeriesPoint, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "observations", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id, date_trunc('hour', ts) AS hour,
		arg_min(count_value, seq),
		COALESCE(arg_max(latitude, seq), 0), COALESCE(arg_max(longitude, seq), 0)
		FROM observations
		WHERE ts >= ? AND ts < ?`+entityFilter(entityID)+`
		GROUP BY entity_id, hour
		ORDER BY entity_id, hour`,
		rangeArgs(entityID, from, to)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query real series: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanSeries(rows)
}

func entityFilter(entityID string) string {
	if entityID == "" {
		return ""
	}
	return " AND entity_id = ?"
}

func rangeArgs(entityID string, from, to time.Time) []any {
	args := []any{from.UTC(), to.UTC()}
	if entityID != "" {
		args = append(args, entityID)
	}
	return args
}

func scanSeries(rows *sql.Rows) ([]models.SeriesPoint, error) {
	var points []models.SeriesPoint
	for rows.Next() {
		var p models.SeriesPoint
		if err := rows.Scan(&p.EntityID, &p.Timestamp, &p.Value, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}
	return points, nil
}
