// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package database stores observations, weather and forecast records in
// DuckDB. A DB is created once at startup and passed to its users.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/logging"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the DuckDB connection pool.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database at cfg.Path and creates the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	if cfg.Path != MemoryPath {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Str("max_memory", maxMemory).
		Msg("Database opened")
	return db, nil
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Close checkpoints the WAL and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}
