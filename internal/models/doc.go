// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package models defines the data structures shared across Veloforecast.

Key Components:

  - Entity, Observation: counters and their raw hourly readings
  - WeatherObservation: hourly temperature, wind and precipitation
  - GridRow: one hour of a regularized, weather-joined series
  - SeriesPoint: an (entity, hour) value read back from storage
  - ForecastRecord: one predicted hourly count
  - ReconciledPoint: a real-or-predicted value with its Provenance
  - ModelQuality, HealthStatus, ForecastRun*: API payloads

Validation tags use go-playground/validator and are checked through
internal/validation at the edges (CSV ingest, HTTP requests).

All timestamps are UTC hour starts.
*/
package models
