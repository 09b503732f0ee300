// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/veloforecast/internal/validation"
)

// Validate checks struct rules first, then cross-field rules per section.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateForecast(); err != nil {
		return err
	}
	if err := c.validateWeather(); err != nil {
		return err
	}
	return c.validateEvents()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

func (c *Config) validateForecast() error {
	minLag := c.Forecast.Lags[0]
	for _, h := range c.Forecast.Lags {
		if h < minLag {
			minLag = h
		}
	}
	if c.Forecast.RollingWindow > 0 {
		if c.Forecast.RollingStep <= 0 {
			return fmt.Errorf("FORECAST_ROLLING_STEP must be positive when a rolling window is set")
		}
		if c.Forecast.RollingOffset < minLag {
			return fmt.Errorf("FORECAST_ROLLING_OFFSET (%dh) must not be shorter than the minimum lag (%dh)",
				c.Forecast.RollingOffset, minLag)
		}
	}
	switch strings.ToUpper(c.Forecast.Country) {
	case "", "NONE", "FR":
	default:
		return fmt.Errorf("HOLIDAY_COUNTRY %q is not supported", c.Forecast.Country)
	}
	return nil
}

func (c *Config) validateWeather() error {
	if c.Weather.CacheEnabled && c.Weather.CachePath == "" {
		return fmt.Errorf("WEATHER_CACHE_PATH is required when WEATHER_CACHE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled || c.Events.NATSURL == "" {
		return nil
	}
	u, err := url.Parse(c.Events.NATSURL)
	if err != nil {
		return fmt.Errorf("NATS_URL failed to parse: %w", err)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return fmt.Errorf("NATS_URL scheme must be nats or tls, got: %s", u.Scheme)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when events are enabled")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
