// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behaviour. Zero fields take the values of
// DefaultTreeConfig.
type TreeConfig struct {
	FailureThreshold float64       // restarts tolerated before backoff
	FailureDecay     float64       // seconds for the failure count to decay
	FailureBackoff   time.Duration // pause once the threshold is hit
	ShutdownTimeout  time.Duration // per-service stop deadline
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Layer names as they appear in supervisor events.
const (
	RootName     = "veloforecast"
	ForecastName = "forecast-layer"
	APIName      = "api-layer"
)

// SupervisorTree is the two-layer tree of the forecast server. A crashing
// scheduler is restarted without taking the HTTP server down, and the
// reverse.
type SupervisorTree struct {
	root     *suture.Supervisor
	forecast *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events are logged through
// logger, or slog.Default when nil.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	// Layers inherit the root's event hook when added.
	t := &SupervisorTree{
		root:     suture.New(RootName, config.spec(hook)),
		forecast: suture.New(ForecastName, config.spec(nil)),
		api:      suture.New(APIName, config.spec(nil)),
		config:   config,
	}
	t.root.Add(t.forecast)
	t.root.Add(t.api)
	return t, nil
}

// Config returns the effective configuration.
func (t *SupervisorTree) Config() TreeConfig { return t.config }

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor { return t.root }

// AddForecastService adds a scheduler or scorer to the forecast layer.
func (t *SupervisorTree) AddForecastService(svc suture.Service) suture.ServiceToken {
	return t.forecast.Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is cancelled and every layer has stopped.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the channel yields its result.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
