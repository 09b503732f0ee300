// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter on top of zerolog.
type WatermillAdapter struct {
	logger zerolog.Logger
}

// NewWatermillAdapter wraps the global logger for watermill publishers.
func NewWatermillAdapter() *WatermillAdapter {
	return &WatermillAdapter{logger: WithComponent("events")}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(a.logger.Error().Err(err), fields).Msg(msg)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(a.logger.Info(), fields).Msg(msg)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(a.logger.Debug(), fields).Msg(msg)
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(a.logger.Trace(), fields).Msg(msg)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{logger: a.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	if len(fields) == 0 {
		return ev
	}
	return ev.Fields(map[string]interface{}(fields))
}
