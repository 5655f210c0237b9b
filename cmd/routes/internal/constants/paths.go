package constants

import "os"

// Default file and directory paths used by the application.
const (
	// DefaultConfigPath is the configuration file read when -config is not given.
	// Used in: config/config.go
	DefaultConfigPath = "/etc/tpod-routes.yaml"

	// DefaultLogDirectory is the directory holding main.log.
	// Used in: config/config.go, preflight/preflight.go
	DefaultLogDirectory = "/var/log/tpod-routes"

	// LogFileName is the name of the log file inside the log directory.
	// Used in: main.go
	LogFileName = "main.log"
)

// File and directory permission constants.
const (
	// DirPermissions is the default permission mode for creating directories.
	// Value: 0755 (rwxr-xr-x)
	// Used in: logging/logger.go, preflight/preflight.go
	DirPermissions os.FileMode = 0755

	// FilePermissions is the default permission mode for creating regular files.
	// Value: 0644 (rw-r--r--)
	// Used in: logging/logger.go, preflight/preflight.go, main.go (export)
	FilePermissions os.FileMode = 0644
)
