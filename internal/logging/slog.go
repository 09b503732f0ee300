// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler that writes through zerolog, so that
// sutureslog events end up in the same stream as everything else.
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	prefix string
}

// NewSlogHandler wraps the global logger.
func NewSlogHandler() *SlogHandler {
	return &SlogHandler{logger: Logger()}
}

// NewSlogLogger returns a slog.Logger backed by the global zerolog logger.
//
//	tree := suture.New("root", suture.Spec{EventHook: (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()})
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= toZerologLevel(level)
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	var ev *zerolog.Event
	switch {
	case r.Level >= slog.LevelError:
		ev = h.logger.Error()
	case r.Level >= slog.LevelWarn:
		ev = h.logger.Warn()
	case r.Level >= slog.LevelInfo:
		ev = h.logger.Info()
	default:
		ev = h.logger.Debug()
	}
	for _, a := range h.attrs {
		ev = appendAttr(ev, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = appendAttr(ev, h.prefix, a)
		return true
	})
	ev.Msg(r.Message)
	return nil
}

// WithAttrs qualifies attrs with the groups opened so far. Groups opened
// later do not apply to them.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		merged = append(merged, a)
	}
	return &SlogHandler{logger: h.logger, attrs: merged, prefix: h.prefix}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func appendAttr(ev *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	key := prefix + a.Key
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return ev.Str(key, v.String())
	case slog.KindInt64:
		return ev.Int64(key, v.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, v.Float64())
	case slog.KindBool:
		return ev.Bool(key, v.Bool())
	case slog.KindDuration:
		return ev.Dur(key, v.Duration())
	case slog.KindTime:
		return ev.Time(key, v.Time())
	case slog.KindGroup:
		for _, ga := range v.Group() {
			ev = appendAttr(ev, key+".", ga)
		}
		return ev
	default:
		return ev.Interface(key, v.Any())
	}
}

func toZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
