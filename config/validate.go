package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports field errors under their environment variable names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := field.Tag.Get("env")
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidationError lists every invalid environment variable with its messages
type ValidationError struct {
	FieldErrors map[string][]string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	fields := e.Fields()
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.FieldErrors[field], ", ")))
	}
	return "invalid environment variables: " + strings.Join(parts, "; ")
}

// Fields returns the invalid variable names in sorted order
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// AsValidationError reports whether err is a *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

type fieldErrors map[string][]string

func (f fieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

// validateConfig applies the struct rules, skipping fields that already
// failed to parse so each problem is reported once
func validateConfig(cfg *Config, errs fieldErrors) {
	err := validate.Struct(cfg)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("_", err.Error())
		return
	}

	for _, fe := range verrs {
		if _, failed := errs[fe.Field()]; failed {
			continue
		}
		errs.add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of: %s, received %q",
			strings.Join(strings.Fields(fe.Param()), ", "), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "required_if":
		return fmt.Sprintf("%s is required in %s", fe.Field(), lastWord(fe.Param()))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}
	return words[len(words)-1]
}
