// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package forecast

import "errors"

var (
	// ErrModelUnavailable aborts a run: nothing is predicted without a model.
	ErrModelUnavailable = errors.New("forecast model unavailable")

	// ErrModelMismatch aborts a run when a loaded model cannot score the
	// pipeline's rows.
	ErrModelMismatch = errors.New("forecast model does not fit feature rows")

	// ErrNoObservations aborts a run when the observation source is empty.
	ErrNoObservations = errors.New("no observations to seed forecast memory")

	// ErrInvalidTargetDate is returned for a zero or unparseable target date.
	ErrInvalidTargetDate = errors.New("invalid target date")

	// ErrRunInProgress is returned by TryRun while another run holds the engine.
	ErrRunInProgress = errors.New("a forecast run is already in progress")
)
