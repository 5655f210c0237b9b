// Package config provides configuration management for the route table service.
// It uses YAML-only configuration with centralized defaults and no environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opentpod/routes/cmd/routes/internal/constants"
	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
)

const (
	// VersionMajor is the major version number
	VersionMajor = 1
	// VersionMinor is the minor version number
	VersionMinor = 2
	// ServiceName identifies the service in logs and health responses.
	ServiceName = "tpod-routes"
)

// Version returns the version string in format {major}.{minor}
func Version() string {
	return fmt.Sprintf("%d.%d", VersionMajor, VersionMinor)
}

// Defaults contains all default configuration values
// centralized in one place to avoid hardcoded literals
var Defaults = struct {
	Server struct {
		Port   int
		Host   string
		Prefix string
	}
	Logging struct {
		Path   string
		Level  string
		Format string
	}
	Backend struct {
		BaseURL       string
		PageSize      int
		ProbeEndpoint string
	}
	Drift struct {
		Enabled        bool
		FailOnMismatch bool
		Timeout        int
	}
	CORS struct {
		Enabled          bool
		AllowedOrigins   []string
		AllowedMethods   []string
		AllowedHeaders   []string
		AllowCredentials bool
		MaxAge           int
	}
	ConfigPath string
}{
	Server: struct {
		Port   int
		Host   string
		Prefix string
	}{
		Port:   6010,
		Host:   "0.0.0.0",
		Prefix: "",
	},
	Logging: struct {
		Path   string
		Level  string
		Format string
	}{
		Path:   constants.DefaultLogDirectory,
		Level:  "info",
		Format: "console",
	},
	Backend: struct {
		BaseURL       string
		PageSize      int
		ProbeEndpoint string
	}{
		BaseURL:       "http://localhost:8000",
		PageSize:      0, // unknown; probe the backend instead
		ProbeEndpoint: endpoints.Detectors.String(),
	},
	Drift: struct {
		Enabled        bool
		FailOnMismatch bool
		Timeout        int
	}{
		Enabled:        true,
		FailOnMismatch: false,
		Timeout:        int(constants.DriftCheckTimeout / time.Second),
	},
	CORS: struct {
		Enabled          bool
		AllowedOrigins   []string
		AllowedMethods   []string
		AllowedHeaders   []string
		AllowCredentials bool
		MaxAge           int
	}{
		Enabled:          false,
		AllowedOrigins:   []string{},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           3600, // 1 hour
	},
	ConfigPath: constants.DefaultConfigPath,
}

// AppConfig holds the application configuration.
// It is designed to be immutable after initialization.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Backend BackendConfig `mapstructure:"backend"`
	Drift   DriftConfig   `mapstructure:"drift"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	Host   string `mapstructure:"host"`
	Prefix string `mapstructure:"prefix"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Path   string `mapstructure:"path"`   // log directory path
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // simple, console, json
}

// BackendConfig describes the OpenTPOD backend whose routes are served.
type BackendConfig struct {
	BaseURL       string `mapstructure:"base_url"`       // scheme://host[:port] of the backend
	PageSize      int    `mapstructure:"page_size"`      // declared backend PAGE_SIZE, 0 if unknown
	ProbeEndpoint string `mapstructure:"probe_endpoint"` // route table key of a paginated list
}

// DriftConfig controls the startup page size consistency check.
type DriftConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	FailOnMismatch bool `mapstructure:"fail_on_mismatch"` // exit at startup on mismatch
	Timeout        int  `mapstructure:"timeout"`          // in seconds
}

// TimeoutDuration returns the configured timeout as a duration.
func (d DriftConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// CORSConfig holds CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`           // enable CORS support (default: false)
	AllowedOrigins   []string `mapstructure:"allowed_origins"`   // e.g. ["https://tpod.example.com"]
	AllowedMethods   []string `mapstructure:"allowed_methods"`   // list of allowed HTTP methods
	AllowedHeaders   []string `mapstructure:"allowed_headers"`   // list of allowed request headers
	AllowCredentials bool     `mapstructure:"allow_credentials"` // allow cookies and auth headers
	MaxAge           int      `mapstructure:"max_age"`           // preflight cache duration in seconds
}

// prefixPattern matches a normalized server prefix: slash separated segments
// of URL-safe characters, nothing that ServeMux reads as pattern syntax.
var prefixPattern = regexp.MustCompile(`^(/[A-Za-z0-9._~-]+)*$`)

// Load initializes and loads the application configuration.
// It reads from YAML config files only. A missing default config file is not
// an error; a missing explicitly requested file is.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()

	// Set default values from centralized Defaults struct
	v.SetDefault("server.port", Defaults.Server.Port)
	v.SetDefault("server.host", Defaults.Server.Host)
	v.SetDefault("server.prefix", Defaults.Server.Prefix)
	v.SetDefault("logging.path", Defaults.Logging.Path)
	v.SetDefault("logging.level", Defaults.Logging.Level)
	v.SetDefault("logging.format", Defaults.Logging.Format)
	v.SetDefault("backend.base_url", Defaults.Backend.BaseURL)
	v.SetDefault("backend.page_size", Defaults.Backend.PageSize)
	v.SetDefault("backend.probe_endpoint", Defaults.Backend.ProbeEndpoint)
	v.SetDefault("drift.enabled", Defaults.Drift.Enabled)
	v.SetDefault("drift.fail_on_mismatch", Defaults.Drift.FailOnMismatch)
	v.SetDefault("drift.timeout", Defaults.Drift.Timeout)
	v.SetDefault("cors.enabled", Defaults.CORS.Enabled)
	v.SetDefault("cors.allowed_origins", Defaults.CORS.AllowedOrigins)
	v.SetDefault("cors.allowed_methods", Defaults.CORS.AllowedMethods)
	v.SetDefault("cors.allowed_headers", Defaults.CORS.AllowedHeaders)
	v.SetDefault("cors.allow_credentials", Defaults.CORS.AllowCredentials)
	v.SetDefault("cors.max_age", Defaults.CORS.MaxAge)

	v.SetConfigType("yaml")

	path := configPath
	if path == "" {
		path = Defaults.ConfigPath
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case errors.Is(statErr, os.ErrNotExist) && configPath == "":
		// No default file; run on defaults.
	case errors.Is(statErr, os.ErrNotExist):
		return nil, fmt.Errorf("config file not found: %s", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", statErr)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration values and normalizes the ones that have a
// canonical form.
func validate(cfg *AppConfig) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	// Normalize prefix: leading slash, no trailing slash
	if cfg.Server.Prefix != "" {
		if !strings.HasPrefix(cfg.Server.Prefix, "/") {
			cfg.Server.Prefix = "/" + cfg.Server.Prefix
		}
		cfg.Server.Prefix = strings.TrimRight(cfg.Server.Prefix, "/")
	}
	if !prefixPattern.MatchString(cfg.Server.Prefix) {
		return fmt.Errorf("invalid server prefix '%s', segments may only contain letters, digits and . _ ~ -", cfg.Server.Prefix)
	}

	if cfg.Logging.Path == "" {
		cfg.Logging.Path = Defaults.Logging.Path
	}
	switch cfg.Logging.Level {
	case "":
		cfg.Logging.Level = Defaults.Logging.Level
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level '%s', must be one of: debug, info, warn, error", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "":
		cfg.Logging.Format = Defaults.Logging.Format
	case "simple", "console", "json":
	default:
		return fmt.Errorf("invalid logging format '%s', must be one of: simple, console, json", cfg.Logging.Format)
	}

	if err := validateBackend(&cfg.Backend); err != nil {
		return err
	}

	if cfg.Drift.Timeout < 0 {
		return fmt.Errorf("drift.timeout cannot be negative: %d", cfg.Drift.Timeout)
	}
	if cfg.Drift.Timeout == 0 {
		cfg.Drift.Timeout = Defaults.Drift.Timeout
	}

	if cfg.CORS.Enabled {
		if len(cfg.CORS.AllowedOrigins) == 0 && cfg.CORS.AllowCredentials {
			return fmt.Errorf("cors: allow_credentials requires at least one entry in allowed_origins")
		}
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" && cfg.CORS.AllowCredentials {
				return fmt.Errorf("cors: allow_credentials cannot be combined with wildcard origin '*'")
			}
		}
	}

	return nil
}

func validateBackend(b *BackendConfig) error {
	b.BaseURL = strings.TrimRight(b.BaseURL, "/")
	u, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got '%s'", b.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend.base_url has no host: '%s'", b.BaseURL)
	}

	if b.PageSize < 0 {
		return fmt.Errorf("backend.page_size cannot be negative: %d", b.PageSize)
	}

	if b.ProbeEndpoint == "" {
		b.ProbeEndpoint = Defaults.Backend.ProbeEndpoint
	}
	name, err := endpoints.Parse(b.ProbeEndpoint)
	if err != nil {
		return fmt.Errorf("backend.probe_endpoint: %w", err)
	}
	if name.Kind() != endpoints.KindAPI {
		return fmt.Errorf("backend.probe_endpoint '%s' is a %s route, need an api route", b.ProbeEndpoint, name.Kind())
	}

	return nil
}

// ProbeName returns the route used to probe backend pagination. Load has
// already validated the key.
func (b BackendConfig) ProbeName() endpoints.Name {
	name, err := endpoints.Parse(b.ProbeEndpoint)
	if err != nil {
		return endpoints.Detectors
	}
	return name
}
