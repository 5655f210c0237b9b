package constants

import "time"

// Timeout and duration constants used throughout the application.
const (
	// ShutdownTimeout is the maximum time allowed for graceful shutdown.
	// Used in: server/server.go
	// Purpose: Allows in-flight requests to complete before forcing shutdown
	// Default: 30 seconds
	ShutdownTimeout = 30 * time.Second

	// HTTPReadTimeout is the maximum duration for reading the entire request.
	// Used in: server/server.go
	// Default: 15 seconds
	HTTPReadTimeout = 15 * time.Second

	// HTTPWriteTimeout is the maximum duration before timing out writes of the response.
	// Used in: server/server.go
	// Default: 15 seconds
	HTTPWriteTimeout = 15 * time.Second

	// HTTPIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Used in: server/server.go
	// Default: 60 seconds
	HTTPIdleTimeout = 60 * time.Second

	// DriftCheckTimeout bounds the backend probe made by the drift checker.
	// Used in: drift/checker.go, config/config.go
	// Purpose: A slow backend must not block startup indefinitely
	// Default: 5 seconds (configurable via drift.timeout)
	DriftCheckTimeout = 5 * time.Second
)
