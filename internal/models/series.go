// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package models

import (
	"time"
)

// Entity is one physical counting sensor. The location is only used for display.
type Entity struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Observation is one raw count reading. Timestamps are naive wall-clock
// values already harmonized to the reference timezone.
type Observation struct {
	EntityID  string    `json:"entity_id" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Count     float64   `json:"count" validate:"gte=0"`
	Latitude  float64   `json:"latitude,omitempty" validate:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude,omitempty" validate:"gte=-180,lte=180"`
}

// WeatherObservation holds the hourly covariates attached to every grid row.
type WeatherObservation struct {
	Timestamp     time.Time `json:"timestamp" validate:"required"`
	Temperature   float64   `json:"temperature_2m"`
	WindSpeed     float64   `json:"wind_speed_10m" validate:"gte=0"`
	Precipitation float64   `json:"precipitation" validate:"gte=0"`
}

// GridRow is one hour of a regularized entity series.
type GridRow struct {
	EntityID  string
	Timestamp time.Time
	Count     float64
	// Observed is false for hours that were absent from the input and filled with 0.
	Observed bool
	Weather  WeatherObservation
}

// SeriesPoint is a single (entity, hour) value as read back from storage.
type SeriesPoint struct {
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
}
