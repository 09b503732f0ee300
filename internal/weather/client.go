// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/veloforecast/internal/config"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/metrics"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointArchive  = "archive"
	EndpointForecast = "forecast"
)

const (
	hourlyVariables  = "temperature_2m,wind_speed_10m,precipitation"
	openMeteoTime    = "2006-01-02T15:04"
	maxErrorBodySize = 4 * 1024
)

// ErrBadResponse is returned when the API answers with an unusable payload.
var ErrBadResponse = errors.New("unexpected weather API response")

// Client fetches hourly covariates from Open-Meteo.
type Client struct {
	archiveURL  string
	forecastURL string
	latitude    float64
	longitude   float64
	httpClient  *http.Client
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker[[]models.WeatherObservation]
	cache       *ArchiveCache
	now         func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithArchiveCache serves complete past days from cache.
func WithArchiveCache(c *ArchiveCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithClock overrides the wall clock used to pick the endpoint.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.httpClient = h }
}

// NewClient creates a client for the configured location.
func NewClient(cfg config.WeatherConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	c := &Client{
		archiveURL:  cfg.ArchiveURL,
		forecastURL: cfg.ForecastURL,
		latitude:    cfg.Latitude,
		longitude:   cfg.Longitude,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		cb:          newBreaker("open-meteo"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Day returns the available hours of day. Days before today come from the
// archive endpoint, today and later from the forecast endpoint.
func (c *Client) Day(ctx context.Context, day time.Time) ([]models.WeatherObservation, error) {
	day = truncateDay(day)
	if day.Before(truncateDay(c.now())) {
		return c.archiveDay(ctx, day)
	}
	return c.fetch(ctx, EndpointForecast, day, day)
}

func (c *Client) archiveDay(ctx context.Context, day time.Time) ([]models.WeatherObservation, error) {
	if c.cache != nil {
		rows, ok, err := c.cache.Get(c.latitude, c.longitude, day)
		if err != nil {
			logging.Warn().Err(err).Msg("Weather cache read failed")
		} else if ok {
			metrics.WeatherCacheHits.Inc()
			return rows, nil
		}
	}

	rows, err := c.fetch(ctx, EndpointArchive, day, day)
	if err != nil {
		return nil, err
	}
	if c.cache != nil && len(rows) == 24 {
		if err := c.cache.Put(c.latitude, c.longitude, day, rows); err != nil {
			logging.Warn().Err(err).Msg("Weather cache write failed")
		}
	}
	return rows, nil
}

// Range returns archived hours for the inclusive day range, in one request.
func (c *Client) Range(ctx context.Context, from, to time.Time) ([]models.WeatherObservation, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return c.fetch(ctx, EndpointArchive, from, to)
}

func (c *Client) fetch(ctx context.Context, endpoint string, from, to time.Time) ([]models.WeatherObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := c.cb.Execute(func() ([]models.WeatherObservation, error) {
		return c.get(ctx, endpoint, from, to)
	})
	metrics.RecordWeatherRequest(endpoint, requestStatus(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s weather %s..%s: %w", endpoint,
			from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}

	logging.Debug().
		Str("endpoint", endpoint).
		Str("from", from.Format(time.DateOnly)).
		Str("to", to.Format(time.DateOnly)).
		Int("hours", len(rows)).
		Msg("Weather fetched")
	return rows, nil
}

func requestStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

func (c *Client) get(ctx context.Context, endpoint string, from, to time.Time) ([]models.WeatherObservation, error) {
	base := c.archiveURL
	if endpoint == EndpointForecast {
		base = c.forecastURL
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	params.Set("hourly", hourlyVariables)
	params.Set("start_date", from.Format(time.DateOnly))
	params.Set("end_date", to.Format(time.DateOnly))
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("status %d: %s: %w", resp.StatusCode, body, ErrBadResponse)
	}

	var payload hourlyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.observations()
}

// hourlyResponse is the subset of the Open-Meteo payload we read. Cells are
// nullable: the archive lags real time by a few days.
type hourlyResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		Precipitation []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

// observations keeps the hours where every variable is present.
func (r *hourlyResponse) observations() ([]models.WeatherObservation, error) {
	h := r.Hourly
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.WindSpeed) != n || len(h.Precipitation) != n {
		return nil, fmt.Errorf("hourly arrays have different lengths: %w", ErrBadResponse)
	}

	rows := make([]models.WeatherObservation, 0, n)
	for i, raw := range h.Time {
		ts, err := time.Parse(openMeteoTime, raw)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", raw, ErrBadResponse)
		}
		if h.Temperature[i] == nil || h.WindSpeed[i] == nil || h.Precipitation[i] == nil {
			continue
		}
		rows = append(rows, models.WeatherObservation{
			Timestamp:     ts,
			Temperature:   *h.Temperature[i],
			WindSpeed:     *h.WindSpeed[i],
			Precipitation: *h.Precipitation[i],
		})
	}
	return rows, nil
}
