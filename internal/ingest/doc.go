// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package ingest reads the bike-counter and weather CSV exports and loads
// them into the store.
//
// # File Format
//
// Both exports are delimited text with a header row. The delimiter is
// detected from the header: semicolon files may use a decimal comma
// ("5,8"), comma files may not. Column names are matched case-insensitively
// against a small alias table, so the raw open-data export
// (counter_id;datetime;intensity;lat;lon) and the cleaned export
// (entity_id,timestamp,count,...) both load.
//
// Timestamps are naive wall-clock values. Values that carry an offset
// ("2025-03-10 06:00:00+00:00") are converted to UTC and the offset dropped.
//
// # Validation
//
// Every row is checked with the shared validator. Rows that fail to parse
// or validate are skipped and counted, never fatal:
//
//	obs, stats, err := ingest.ReadObservations(f)
//	// stats.Skipped rows were dropped
//
// # Memoization
//
// Loader memoizes parsed files in a run-scoped cache.Cacher so that a run
// that reads the same export twice parses it once.
package ingest
