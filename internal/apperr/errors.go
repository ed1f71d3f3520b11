// Package apperr defines the error taxonomy shared by the HTTP and CLI transports.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable machine-readable error code
type Code string

const (
	CodeConfig      Code = "CONFIG_ERROR"
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeAuth        Code = "AUTH_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeRateLimited Code = "RATE_LIMITED"
	CodeUpstream    Code = "UPSTREAM_ERROR"
	CodeCanceled    Code = "CANCELED"
	CodeInternal    Code = "INTERNAL_ERROR"
)

// ErrUnexpectedResponse marks provider responses that decoded but made no sense,
// such as an unknown webset status or a repeating cursor.
var ErrUnexpectedResponse = errors.New("unexpected provider response")

// ConfigError is raised at startup when a required setting is missing or invalid
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error: %s: %s", e.Key, e.Message)
}

// FieldError is a single failed field check
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input before any network call is made
type ValidationError struct {
	Fields []FieldError
}

// NewValidation builds a ValidationError for one field
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProviderError is a failed provider call. StatusCode is 0 for transport failures.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("provider %s failed: %s", e.Op, msg)
	}
	return fmt.Sprintf("provider %s failed with status %d: %s", e.Op, e.StatusCode, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError means the API key is missing or was rejected
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// Status is how an error is presented to HTTP clients
type Status struct {
	HTTPStatus int
	Type       string
	Code       Code
	Message    string
}

// Classify maps an error onto its HTTP presentation
func Classify(err error) Status {
	var (
		validationErr *ValidationError
		providerErr   *ProviderError
		authErr       *AuthError
		configErr     *ConfigError
	)

	switch {
	case errors.As(err, &validationErr):
		return Status{http.StatusBadRequest, "invalid_request_error", CodeValidation, validationErr.Error()}
	case errors.As(err, &authErr):
		return Status{http.StatusBadGateway, "authentication_error", CodeAuth, authErr.Error()}
	case errors.As(err, &providerErr):
		return classifyProvider(providerErr)
	case errors.As(err, &configErr):
		return Status{http.StatusInternalServerError, "configuration_error", CodeConfig, configErr.Error()}
	case errors.Is(err, ErrUnexpectedResponse):
		return Status{http.StatusBadGateway, "upstream_error", CodeUpstream, err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Status{http.StatusServiceUnavailable, "canceled", CodeCanceled, err.Error()}
	default:
		return Status{http.StatusInternalServerError, "internal_error", CodeInternal, err.Error()}
	}
}

func classifyProvider(e *ProviderError) Status {
	switch e.StatusCode {
	case http.StatusNotFound:
		return Status{http.StatusNotFound, "not_found", CodeNotFound, e.Error()}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Status{http.StatusBadRequest, "invalid_request_error", CodeValidation, e.Error()}
	case http.StatusTooManyRequests:
		return Status{http.StatusServiceUnavailable, "rate_limited", CodeRateLimited, e.Error()}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Status{http.StatusBadGateway, "authentication_error", CodeAuth, e.Error()}
	default:
		return Status{http.StatusBadGateway, "upstream_error", CodeUpstream, e.Error()}
	}
}
