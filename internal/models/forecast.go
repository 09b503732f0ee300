// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package models

import (
	"time"
)

// ForecastRecord is one predicted hourly count, the unit written to the prediction store.
type ForecastRecord struct {
	RunID          string    `json:"run_id,omitempty"`
	EntityID       string    `json:"entity_id"`
	Timestamp      time.Time `json:"timestamp"`
	PredictedCount int64     `json:"predicted_count"`
	Latitude       float64   `json:"latitude,omitempty"`
	Longitude      float64   `json:"longitude,omitempty"`
}

// Provenance tags where a reconciled value came from.
type Provenance string

const (
	ProvenanceReal       Provenance = "real"
	ProvenancePrediction Provenance = "prediction"
)

// ReconciledPoint is one row of the gap-free series served to the map.
type ReconciledPoint struct {
	EntityID   string     `json:"entity_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Value      float64    `json:"value"`
	Provenance Provenance `json:"provenance"`
	Latitude   float64    `json:"latitude,omitempty"`
	Longitude  float64    `json:"longitude,omitempty"`
}

// ModelQuality is the hold-out score of a trained model.
type ModelQuality struct {
	MAE       float64   `json:"mae"`
	R2        float64   `json:"r2"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	ScoredAt  time.Time `json:"scored_at"`
}

// ForecastRunRequest is the body of POST /api/v1/forecasts/run.
type ForecastRunRequest struct {
	TargetDate string `json:"target_date" validate:"required,datetime=2006-01-02"`
}

// ForecastRunResponse summarizes a completed run.
type ForecastRunResponse struct {
	RunID      string    `json:"run_id"`
	TargetDate string    `json:"target_date"`
	Records    int       `json:"records"`
	Days       int       `json:"days"`
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	ForecastRuns      int     `json:"forecast_runs"`
	ModelScored       bool    `json:"model_scored"`
	Uptime            float64 `json:"uptime_seconds"`
}

// APIError is the JSON error envelope.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
