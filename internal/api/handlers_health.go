// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/veloforecast/internal/models"
)

// Health reports database connectivity and how many runs have been stored.
// It always answers 200; status is "degraded" when the database is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if !dbConnected {
		health.Status = "degraded"
	} else if n, err := h.store.ForecastRunCount(r.Context()); err == nil {
		health.ForecastRuns = n
	}
	if h.quality != nil {
		_, health.ModelScored = h.quality.Quality()
	}

	respondJSON(w, http.StatusOK, health)
}

// ModelQuality returns the latest hold-out score.
func (h *Handler) ModelQuality(w http.ResponseWriter, r *http.Request) {
	if h.quality == nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Model has not been scored", nil)
		return
	}
	q, ok := h.quality.Quality()
	if !ok {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Model has not been scored", nil)
		return
	}
	respondJSON(w, http.StatusOK, q)
}
