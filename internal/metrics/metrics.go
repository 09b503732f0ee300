// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package metrics declares the Prometheus collectors for the forecast engine,
// its storage, the weather client and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Forecast engine
	ForecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Forecast runs by outcome",
		},
		[]string{"status"}, // "success", "failed"
	)

	ForecastRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_run_duration_seconds",
			Help:    "Wall time of a full recursive forecast run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	ForecastDays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_days_total",
			Help: "Days advanced by the recursive forecaster",
		},
	)

	ForecastRecordsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_records_emitted_total",
			Help: "Forecast records handed to the sink",
		},
	)

	ForecastSinkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_sink_errors_total",
			Help: "Days whose forecast records could not be persisted",
		},
	)

	ForecastWeatherFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_weather_fallbacks_total",
			Help: "Days forecast with default weather covariates",
		},
	)

	ForecastLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forecast_last_success_timestamp",
			Help: "Unix time of the last successful forecast run",
		},
	)

	FeatureRowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "features_rows_dropped_total",
			Help: "Rows dropped for incomplete lag history",
		},
	)

	// Ingestion
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "CSV rows read by kind and outcome",
		},
		[]string{"kind", "outcome"}, // "loaded", "skipped"
	)

	// Model quality
	ModelMAE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_mae",
			Help: "Mean absolute error of the model on the hold-out split",
		},
	)

	ModelR2 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_r2",
			Help: "R squared of the model on the hold-out split",
		},
	)

	// Weather client
	WeatherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Weather API requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	WeatherRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_request_duration_seconds",
			Help:    "Weather API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	WeatherCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_archive_cache_hits_total",
			Help: "Past days served from the local archive cache",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Storage
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_events_published_total",
			Help: "Forecast record messages published",
		},
		[]string{"backend", "status"},
	)

	// HTTP
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordForecastRun records the outcome of one run.
func RecordForecastRun(duration time.Duration, err error) {
	ForecastRunDuration.Observe(duration.Seconds())
	if err != nil {
		ForecastRuns.WithLabelValues("failed").Inc()
		return
	}
	ForecastRuns.WithLabelValues("success").Inc()
	ForecastLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordForecastDay counts one advanced day and its emitted records.
func RecordForecastDay(records int) {
	ForecastDays.Inc()
	ForecastRecordsEmitted.Add(float64(records))
}

// RecordSinkError counts a lost day of forecast output.
func RecordSinkError() {
	ForecastSinkErrors.Inc()
}

// RecordWeatherFallback counts a day forecast on default covariates.
func RecordWeatherFallback() {
	ForecastWeatherFallbacks.Inc()
}

// RecordRowsDropped counts rows removed for incomplete lag history.
func RecordRowsDropped(n int) {
	if n > 0 {
		FeatureRowsDropped.Add(float64(n))
	}
}

// RecordIngest counts the rows of one CSV file.
func RecordIngest(kind string, loaded, skipped int) {
	IngestRows.WithLabelValues(kind, "loaded").Add(float64(loaded))
	IngestRows.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

// SetModelQuality publishes hold-out scores.
func SetModelQuality(mae, r2 float64) {
	ModelMAE.Set(mae)
	ModelR2.Set(r2)
}

// RecordWeatherRequest records one weather API call. status is "success",
// "error" or "rejected" (breaker open).
func RecordWeatherRequest(endpoint, status string, duration time.Duration) {
	WeatherRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	WeatherRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordEventPublish records one published forecast message.
func RecordEventPublish(backend string, err error) {
	EventsPublished.WithLabelValues(backend, statusLabel(err)).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
