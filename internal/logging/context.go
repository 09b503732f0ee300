// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	requestIDKey contextKey = "request_id"
)

// NewRunID returns a short id for one forecast run.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// NewRequestID returns a full UUID for one HTTP request.
func NewRequestID() string {
	return uuid.New().String()
}

// ContextWithRunID attaches a forecast run id to ctx.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run id, or "" when none is set.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID attaches an HTTP request id to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger with run_id and request_id from ctx.
//
//	logging.Ctx(ctx).Info().Time("cursor", day).Msg("forecasting day")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Logger().With()
	if id := RunIDFromContext(ctx); id != "" {
		lc = lc.Str("run_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	l := lc.Logger()
	return &l
}
