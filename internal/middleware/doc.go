// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package middleware provides the HTTP middleware shared by the forecast API.

All middleware uses the standard func(http.Handler) http.Handler shape so it
can be mounted with chi's r.Use.

Key Components:

  - RequestID: reuses or generates an X-Request-ID and stores it in the
    request context and the logging context
  - PrometheusMetrics: counts requests and latency per chi route pattern
  - Compression: gzip for large JSON bodies such as reconciled series

Typical stack:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)
*/
package middleware
