// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package api serves observed, forecast and reconciled counter series over HTTP.

Routes are mounted on a chi router:

	GET  /api/v1/health                 database and model status
	GET  /api/v1/counters               known counters with coordinates
	GET  /api/v1/history/{entityID}     observed hourly counts
	GET  /api/v1/series?from=&to=       gap-free real+predicted series
	POST /api/v1/forecasts/run          run the recursive forecast now
	GET  /api/v1/model/quality          last hold-out MAE and R2
	GET  /metrics                       Prometheus exposition

Every route carries a request id, Prometheus instrumentation and CORS. The
/api/v1 group is rate limited with httprate when server.rate_limit > 0.

Errors are JSON objects of the form {"error": CODE, "message": text}.
*/
package api
