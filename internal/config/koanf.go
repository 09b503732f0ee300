// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/veloforecast/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/veloforecast.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // DuckDB picks the core count
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Forecast: ForecastConfig{
			ModelPath:       "/data/model.json",
			HorizonDays:     1,
			Lags:            []int{24, 48, 168},
			RollingWindow:   4,
			RollingOffset:   24,
			RollingStep:     24,
			Country:         "FR",
			Schedule:        6 * time.Hour,
			RunOnStartup:    true,
			QualityInterval: time.Hour,
		},
		Weather: WeatherConfig{
			ArchiveURL:        "https://archive-api.open-meteo.com/v1/era5",
			ForecastURL:       "https://api.open-meteo.com/v1/forecast",
			Latitude:          43.6108,
			Longitude:         3.8767,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 2,
			CacheEnabled:      true,
			CachePath:         "/data/weather-cache",
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "forecast.records",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
			RateLimit:   100,
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, then
// validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Comma-separated env values that must become slices.
var (
	stringSlicePaths = []string{"server.cors_origins"}
	intSlicePaths    = []string{"forecast.lags"}
)

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range stringSlicePaths {
		if s, ok := k.Get(path).(string); ok {
			if err := k.Set(path, splitCSV(s)); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	for _, path := range intSlicePaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := splitCSV(s)
		ints := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("%s: %q is not an integer", path, p)
			}
			ints = append(ints, n)
		}
		if err := k.Set(path, ints); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envMappings maps environment variables to koanf paths. Unlisted variables
// are ignored.
var envMappings = map[string]string{
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"model_path":                "forecast.model_path",
	"forecast_horizon_days":     "forecast.horizon_days",
	"forecast_lags":             "forecast.lags",
	"forecast_rolling_window":   "forecast.rolling_window",
	"forecast_rolling_offset":   "forecast.rolling_offset",
	"forecast_rolling_step":     "forecast.rolling_step",
	"holiday_country":           "forecast.country",
	"forecast_schedule":         "forecast.schedule",
	"forecast_run_on_startup":   "forecast.run_on_startup",
	"forecast_quality_interval": "forecast.quality_interval",

	"weather_archive_url":         "weather.archive_url",
	"weather_forecast_url":        "weather.forecast_url",
	"weather_latitude":            "weather.latitude",
	"weather_longitude":           "weather.longitude",
	"weather_timeout":             "weather.timeout",
	"weather_requests_per_second": "weather.requests_per_second",
	"weather_cache_enabled":       "weather.cache_enabled",
	"weather_cache_path":          "weather.cache_path",

	"events_enabled": "events.enabled",
	"nats_url":       "events.nats_url",
	"events_topic":   "events.topic",

	"http_host":       "server.host",
	"http_port":       "server.port",
	"http_timeout":    "server.timeout",
	"cors_origins":    "server.cors_origins",
	"http_rate_limit": "server.rate_limit",

	"observations_csv": "data.observations_csv",
	"weather_csv":      "data.weather_csv",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
