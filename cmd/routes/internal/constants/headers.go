// Package constants provides centralized constant definitions for the route
// table service. Values reused across packages live here so that handlers,
// middleware and the drift checker agree on names and limits.
package constants

// HTTP header names used throughout the application.
const (
	// HeaderRequestID is the HTTP header used for request tracking and correlation.
	// Used in: errors/errors.go, logging/logger.go
	// Purpose: Ties a response to its log line
	HeaderRequestID = "X-Request-ID"

	// HeaderContentType is the standard HTTP Content-Type header.
	// Used in: server/server.go, errors/errors.go
	HeaderContentType = "Content-Type"

	// HeaderAccept is the standard HTTP Accept header.
	// Used in: drift/checker.go
	// Purpose: Asks the backend for its JSON renderer instead of the browsable API
	HeaderAccept = "Accept"
)

// MIME types used in HTTP requests and responses.
const (
	// MIMEApplicationJSON is the MIME type for JSON responses.
	MIMEApplicationJSON = "application/json"
)
