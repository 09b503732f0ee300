// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import "errors"

// Request parameter errors
var (
	// ErrMissingParam indicates a required query parameter is absent
	ErrMissingParam = errors.New("missing required parameter")

	// ErrBadTime indicates a parameter is neither a date nor RFC 3339
	ErrBadTime = errors.New("invalid time parameter")

	// ErrWindowTooLarge indicates the requested window exceeds MaxWindow
	ErrWindowTooLarge = errors.New("requested window is too large")
)

// Error codes returned in the "error" field.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRunInProgress    = "RUN_IN_PROGRESS"
	CodeModelMissing     = "MODEL_UNAVAILABLE"
	CodeModelMismatch    = "MODEL_MISMATCH"
	CodeNoObservations   = "NO_OBSERVATIONS"
	CodeRateLimited      = "RATE_LIMITED"
	CodeDatabase         = "DATABASE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)
