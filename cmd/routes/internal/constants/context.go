package constants

// Context keys for storing and retrieving values from request contexts.
const (
	// ContextKeyRequestID is the context key for storing request IDs.
	// Used in: errors/errors.go, logging/logger.go
	// Purpose: Request tracking and correlation across logs
	ContextKeyRequestID = "request_id"
)
