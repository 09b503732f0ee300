// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package config loads runtime configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Forecast ForecastConfig `koanf:"forecast"`
	Weather  WeatherConfig  `koanf:"weather"`
	Events   EventsConfig   `koanf:"events"`
	Server   ServerConfig   `koanf:"server"`
	Data     DataConfig     `koanf:"data"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ForecastConfig configures the feature pipeline and the recursive forecaster.
type ForecastConfig struct {
	// ModelPath is the JSON model artifact.
	ModelPath string `koanf:"model_path" validate:"required"`

	// HorizonDays is how far past today a scheduled run forecasts.
	HorizonDays int `koanf:"horizon_days" validate:"gte=0,lte=30"`

	// Lags are the plain lag horizons in hours.
	Lags []int `koanf:"lags" validate:"required,min=1,dive,gt=0"`

	RollingWindow int `koanf:"rolling_window" validate:"gte=0"`
	RollingOffset int `koanf:"rolling_offset" validate:"gte=0"`
	RollingStep   int `koanf:"rolling_step" validate:"gte=0"`

	// Country selects the holiday calendar ("FR" or "none").
	Country string `koanf:"country"`

	// Schedule is the interval between scheduled runs.
	Schedule     time.Duration `koanf:"schedule"`
	RunOnStartup bool          `koanf:"run_on_startup"`

	// QualityInterval is how often hold-out scores are refreshed; 0 disables it.
	QualityInterval time.Duration `koanf:"quality_interval"`
}

// WeatherConfig configures the Open-Meteo client.
type WeatherConfig struct {
	ArchiveURL        string        `koanf:"archive_url" validate:"required,url"`
	ForecastURL       string        `koanf:"forecast_url" validate:"required,url"`
	Latitude          float64       `koanf:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64       `koanf:"longitude" validate:"gte=-180,lte=180"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	CacheEnabled      bool          `koanf:"cache_enabled"`
	CachePath         string        `koanf:"cache_path"`
}

// EventsConfig configures forecast record publishing.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
	RateLimit   int           `koanf:"rate_limit" validate:"gte=0"`
}

// DataConfig points at optional CSV exports used by the import command.
type DataConfig struct {
	ObservationsCSV string `koanf:"observations_csv"`
	WeatherCSV      string `koanf:"weather_csv"`
}

// Load reads the configuration. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
