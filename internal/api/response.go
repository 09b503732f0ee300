// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/veloforecast/internal/logging"
	"github.com/tomtom215/veloforecast/internal/models"
)

// sanitizeLogValue strips line breaks so request input cannot forge log lines.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes {error, message}. A non-nil err is logged with the
// request id; it is never echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, models.APIError{Error: code, Message: message})
}
