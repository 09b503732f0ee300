// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/veloforecast/internal/metrics"
)

// defaultQueryTimeout applies to callers that pass a context without deadline.
const defaultQueryTimeout = 30 * time.Second

func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

// observe records the duration and outcome of one query.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// Checkpoint flushes the WAL into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Path returns the configured database path.
func (db *DB) Path() string {
	return db.cfg.Path
}
