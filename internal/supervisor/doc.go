// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

/*
Package supervisor runs the long-lived services of the forecast server under
a suture v4 tree.

# Overview

Services are grouped in two layers so that a failing forecast loop never
takes the HTTP surface down with it:

	RootSupervisor ("veloforecast")
	├── ForecastSupervisor ("forecast-layer")
	│   ├── ForecastService  (scheduled recursive runs)
	│   └── QualityService   (hold-out score refresh)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog into the zerolog pipeline.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddForecastService(services.NewForecastService(engine, cfg))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err = tree.Serve(ctx)

Serve blocks until ctx is canceled. UnstoppedServiceReport lists services
that ignored the shutdown timeout.
*/
package supervisor
