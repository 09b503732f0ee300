// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/veloforecast/internal/middleware"
)

// Router binds the handler to chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", router.handler.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/model/quality", router.handler.ModelQuality)
			r.Post("/forecasts/run", router.handler.RunForecast)

			r.With(middleware.Compression).Get("/counters", router.handler.Counters)
			r.With(middleware.Compression).Get("/history/{entityID}", router.handler.History)
			r.With(middleware.Compression).Get("/series", router.handler.Series)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
