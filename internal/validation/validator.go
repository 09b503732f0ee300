// Veloforecast - Bicycle Traffic Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/veloforecast

// Package validation wraps go-playground/validator with a shared instance and
// readable messages. It is used for API requests, ingested rows and config.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error collects every failed rule of one struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Struct validates s and returns *Error on failure.
//
//	if err := validation.Struct(&req); err != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
//	}
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &Error{Fields: make([]FieldError, len(ves))}
	for i, fe := range ves {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

var plainMessages = map[string]string{
	"required": "%s is required",
	"url":      "%s must be a valid URL",
	"hostname": "%s must be a valid hostname",
}

var paramMessages = map[string]string{
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"lt":       "%s must be less than %s",
	"datetime": "%s must match the layout %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
}

func message(fe validator.FieldError) string {
	if tpl, ok := plainMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tpl, fe.Field())
	}
	if tpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
