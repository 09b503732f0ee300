// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/veloforecast/internal/forecast"
	"github.com/tomtom215/veloforecast/internal/models"
)

// Counters lists every counter with its last known coordinates.
func (h *Handler) Counters(w http.ResponseWriter, r *http.Request) {
	entities, err := h.store.Entities(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeDatabase, "Failed to list counters", err)
		return
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	respondJSON(w, http.StatusOK, entities)
}

// History returns the observed hourly series of one counter. Without from
// and to it covers the last seven days.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	window, err := parseWindow(r, h.now(), false)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	points, err := h.store.RealSeries(r.Context(), entityID, window.From, window.To)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeDatabase, "Failed to load history", err)
		return
	}
	if points == nil {
		points = []models.SeriesPoint{}
	}
	respondJSON(w, http.StatusOK, points)
}

// Series returns the reconciled real+predicted series for [from, to). The
// optional entity parameter narrows it to one counter.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r, h.now(), true)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	points, err := forecast.ReconciledSeries(r.Context(), h.store, r.URL.Query().Get("entity"), window.From, window.To)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeDatabase, "Failed to load series", err)
		return
	}
	if points == nil {
		points = []models.ReconciledPoint{}
	}
	respondJSON(w, http.StatusOK, points)
}
