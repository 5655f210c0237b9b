// Package errors provides centralized error handling and HTTP error responses.
// It defines the error codes returned by the route table API, the APIError type,
// and middleware for request IDs and panic recovery.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/opentpod/routes/cmd/routes/internal/constants"
	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
	"github.com/opentpod/routes/cmd/routes/internal/logging"
)

// ErrorCode represents a standard error code
type ErrorCode string

const (
	// Request errors
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// Resource errors
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnknownEndpoint ErrorCode = "UNKNOWN_ENDPOINT"

	// Server errors
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      int            `json:"code"`
	ErrorCode ErrorCode      `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// APIError represents an application error
type APIError struct {
	Message    string
	StatusCode int
	ErrorCode  ErrorCode
	Details    map[string]any
	Err        error // Wrapped error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *APIError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *APIError) WithDetails(details map[string]any) *APIError {
	e.Details = details
	return e
}

// Wrap wraps an error with additional context
func (e *APIError) Wrap(err error) *APIError {
	e.Err = err
	return e
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, errorCode ErrorCode, message string) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

// NewInvalidInputError creates a 400 error for a malformed query parameter.
func NewInvalidInputError(param, message string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeInvalidInput, message).
		WithDetails(map[string]any{"param": param})
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewMethodNotAllowedError creates a 405 error
func NewMethodNotAllowedError(method string) *APIError {
	return NewAPIError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, fmt.Sprintf("method %s not allowed", method))
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, CodeInternalError, message)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// FromError maps a plain error to an API error. Unknown route keys become 404s;
// anything else is an internal error.
func FromError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	if stderrors.Is(err, endpoints.ErrUnknownEndpoint) {
		return NewAPIError(http.StatusNotFound, CodeUnknownEndpoint, err.Error()).Wrap(err)
	}
	return NewInternalError("An unexpected error occurred").Wrap(err)
}

// ErrorHandlerConfig holds configuration for error handling
type ErrorHandlerConfig struct {
	// ShowInternalErrors includes wrapped error text in responses.
	// Should be false in production
	ShowInternalErrors bool

	// LogStackTrace logs stack traces for panics
	LogStackTrace bool

	// Logger receives error and panic logs (default: global logger)
	Logger *logging.Logger
}

// ErrorHandler provides error handling middleware and utilities
type ErrorHandler struct {
	config ErrorHandlerConfig
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(config ErrorHandlerConfig) *ErrorHandler {
	return &ErrorHandler{
		config: config,
	}
}

func (h *ErrorHandler) logger() *logging.Logger {
	if h.config.Logger != nil {
		return h.config.Logger
	}
	return logging.GetLogger()
}

// RecoveryMiddleware catches panics and converts them to 500 errors
func (h *ErrorHandler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log := h.logger().WithContext(r.Context())
				if h.config.LogStackTrace {
					log.WithField("stack", string(debug.Stack())).Errorf("PANIC: %v", rec)
				} else {
					log.Errorf("PANIC: %v", rec)
				}

				message := "Internal server error"
				if h.config.ShowInternalErrors {
					message = fmt.Sprintf("Internal server error: %v", rec)
				}

				h.WriteError(w, r, NewInternalError(message))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// WriteError writes an error response
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err *APIError) {
	requestID := GetRequestID(r)

	response := ErrorResponse{
		Error:     err.Message,
		Code:      err.StatusCode,
		ErrorCode: err.ErrorCode,
		RequestID: requestID,
		Details:   err.Details,
	}

	if h.config.ShowInternalErrors && err.Err != nil {
		details := make(map[string]any, len(err.Details)+1)
		for k, v := range err.Details {
			details[k] = v
		}
		details["internal_error"] = err.Err.Error()
		response.Details = details
	}

	log := h.logger().WithContext(r.Context())
	if err.StatusCode >= 500 {
		if err.Err != nil {
			log.ErrorWithErr(fmt.Sprintf("%d %s: %s", err.StatusCode, err.ErrorCode, err.Message), err.Err)
		} else {
			log.Errorf("%d %s: %s", err.StatusCode, err.ErrorCode, err.Message)
		}
	} else {
		log.Debugf("%d %s: %s", err.StatusCode, err.ErrorCode, err.Message)
	}

	w.Header().Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteErrorFromError converts a standard error to an API error response
func (h *ErrorHandler) WriteErrorFromError(w http.ResponseWriter, r *http.Request, err error) {
	h.WriteError(w, r, FromError(err))
}

// GetRequestID gets the request ID assigned by the request logger.
func GetRequestID(r *http.Request) string {
	return logging.GetRequestID(r.Context())
}
