// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/models"
	"github.com/tomtom215/veloforecast/internal/validation"
)

// maxRunBody bounds the JSON body of a run request.
const maxRunBody = 1 << 10

// RunForecast runs the recursive forecast through target_date and answers
// when it completes. A concurrent request gets 409 instead of queueing.
func (h *Handler) RunForecast(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeModelMissing, "Forecasting is not enabled", nil)
		return
	}

	var req models.ForecastRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunBody)).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Request body must be JSON with target_date", nil)
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	target, err := time.Parse(time.DateOnly, req.TargetDate)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "target_date must be YYYY-MM-DD", nil)
		return
	}

	res, err := h.runner.TryRun(r.Context(), target)
	switch {
	case err == nil:
	case errors.Is(err, forecast.ErrRunInProgress):
		respondError(w, r, http.StatusConflict, CodeRunInProgress, "A forecast run is already in progress", nil)
		return
	case errors.Is(err, forecast.ErrModelUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, CodeModelMissing, "No trained model is available", err)
		return
	case errors.Is(err, forecast.ErrModelMismatch):
		respondError(w, r, http.StatusInternalServerError, CodeModelMismatch, "The trained model does not fit the current feature set, retrain it", err)
		return
	case errors.Is(err, forecast.ErrNoObservations):
		respondError(w, r, http.StatusUnprocessableEntity, CodeNoObservations, "No observations have been imported", nil)
		return
	case errors.Is(err, forecast.ErrInvalidTargetDate):
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Forecast run failed", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("run_id", res.RunID).
		Int("records", len(res.Records)).
		Msg("Forecast run triggered via API")

	respondJSON(w, http.StatusOK, models.ForecastRunResponse{
		RunID:      res.RunID,
		TargetDate: res.TargetDate.Format(time.DateOnly),
		Records:    len(res.Records),
		Days:       res.Days,
		StartedAt:  res.StartedAt,
		Duration:   res.Duration.String(),
	})
}
