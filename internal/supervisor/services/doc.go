// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package services provides suture.Service wrappers for the forecast server.

Each wrapper implements:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

Forecast Scheduler (ForecastService):
  - Runs the recursive forecaster through today + HorizonDays
  - Optional run on startup, then one run per interval
  - A failed run is logged and retried on the next tick

Model Quality (QualityService):
  - Scores the saved model on the hold-out tail of the history
  - Publishes model_mae and model_r2

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
*/
package services
