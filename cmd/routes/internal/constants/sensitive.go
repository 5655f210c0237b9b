package constants

// SensitiveFields lists field names masked in logs. The backend is a Django
// application, so its session and CSRF cookie names are included.
// Used in: logging/logger.go for automatic field masking
var SensitiveFields = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"cookie",
	"sessionid",
	"csrftoken",
}

// RedactedPlaceholder is the string used to replace sensitive values in logs.
// Used in: logging/logger.go
const RedactedPlaceholder = "***REDACTED***"
