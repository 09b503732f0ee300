// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"fmt"
	"net/http"
	"time"
)

// MaxWindow bounds series and history queries.
const MaxWindow = 366 * 24 * time.Hour

// DefaultHistoryWindow is used by /history when from is omitted.
const DefaultHistoryWindow = 7 * 24 * time.Hour

// timeWindow is a half-open [From, To) range in UTC.
type timeWindow struct {
	From time.Time
	To   time.Time
}

// parseTimeParam accepts "2006-01-02" or RFC 3339. A date-only upper bound
// covers its whole day, so from=2024-05-01&to=2024-05-01 is one day.
func parseTimeParam(value string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, value)
	}
	return t.UTC(), nil
}

// parseWindow reads from/to. When required is false, a missing to defaults
// to the start of tomorrow and a missing from to DefaultHistoryWindow before to.
func parseWindow(r *http.Request, now time.Time, required bool) (timeWindow, error) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if required && (fromStr == "" || toStr == "") {
		return timeWindow{}, fmt.Errorf("%w: from and to", ErrMissingParam)
	}

	var w timeWindow
	var err error
	if toStr == "" {
		y, m, d := now.UTC().Date()
		w.To = time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	} else if w.To, err = parseTimeParam(toStr, true); err != nil {
		return timeWindow{}, err
	}
	if fromStr == "" {
		w.From = w.To.Add(-DefaultHistoryWindow)
	} else if w.From, err = parseTimeParam(fromStr, false); err != nil {
		return timeWindow{}, err
	}

	if !w.To.After(w.From) {
		return timeWindow{}, fmt.Errorf("%w: to must be after from", ErrBadTime)
	}
	if w.To.Sub(w.From) > MaxWindow {
		return timeWindow{}, ErrWindowTooLarge
	}
	return w, nil
}
