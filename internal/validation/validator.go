// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package validation provides struct validation using
// go-playground/validator v10: a thread-safe singleton instance with
// custom validators for ISO dates and book statuses, and translation of
// field errors into API-friendly messages.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/shelfmark/shelfmark/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error returns the human-readable message.
func (e *FieldError) Error() string {
	return e.Message
}

// RequestError collects every field failure of one request.
type RequestError struct {
	Fields []FieldError `json:"fields"`
}

// Error joins the field messages.
func (re *RequestError) Error() string {
	if len(re.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(re.Fields))
	for i, fe := range re.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the singleton validator. Custom validators are
// registered on first use.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// isodate: YYYY-MM-DD calendar dates.
		_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := models.ParseISODate(fl.Field().String())
			return err == nil
		})

		// bookstatus: a known shelf status name.
		_ = validate.RegisterValidation("bookstatus", func(fl validator.FieldLevel) bool {
			_, err := models.ParseStatus(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// ValidateStruct validates a request struct. Nil means valid.
func ValidateStruct(s any) *RequestError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestError{Fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return &RequestError{Fields: fields}
}

var messageTemplates = map[string]string{
	"required":   "%s is required",
	"isodate":    "%s must be a date in YYYY-MM-DD form",
	"bookstatus": "%s must be a known book status",
}

var messageTemplatesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
	"gte":   "%s must be at least %s",
	"lte":   "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := messageTemplatesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
