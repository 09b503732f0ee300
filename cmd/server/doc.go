// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package main is the entry point for the Veloforecast server.

Veloforecast forecasts hourly bicycle counts for every counter of a city
network, one day at a time, feeding its own predictions back as lag
history. The server runs those forecasts on a schedule and serves the
reconciled real+predicted series to a map front end.

# Application Architecture

	RootSupervisor ("veloforecast")
	├── ForecastSupervisor ("forecast-layer")
	│   ├── Forecast scheduler (recursive run to today + horizon_days)
	│   └── Quality scorer (hold-out MAE and R2 gauges)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment
 2. Logging: zerolog with JSON/console output modes
 3. Application: DuckDB, weather client, holiday calendar, event publisher
    and the forecast orchestrator (internal/app)
 4. Supervisor Tree: Suture v4 process supervision
 5. HTTP Server: Chi router with request id, metrics, CORS and rate limiting

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains, a
running forecast is cancelled between days and the database is closed.

# Example Usage

	export DB_PATH=/data/veloforecast.duckdb
	export FORECAST_MODEL_PATH=/data/model.json
	export FORECAST_HORIZON_DAYS=1
	./veloforecast-server

Data is imported and the model trained with the veloforecast CLI.
*/
package main
