package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func validConfig() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{Port: 6010},
		Backend: BackendConfig{BaseURL: "http://localhost:8000"},
	}
}

func TestVersion(t *testing.T) {
	if got := Version(); got != "1.2" {
		t.Errorf("Version() = %q, want %q", got, "1.2")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 6010 {
		t.Errorf("Expected default port 6010, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Errorf("Unexpected backend base url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.PageSize != 0 {
		t.Errorf("Expected backend page size 0 (unknown), got %d", cfg.Backend.PageSize)
	}
	if cfg.Backend.ProbeName() != endpoints.Detectors {
		t.Errorf("Expected detectors as probe endpoint, got %s", cfg.Backend.ProbeName())
	}
	if !cfg.Drift.Enabled || cfg.Drift.FailOnMismatch {
		t.Errorf("Unexpected drift defaults: %+v", cfg.Drift)
	}
	if cfg.Drift.TimeoutDuration() != 5*time.Second {
		t.Errorf("Expected 5s drift timeout, got %v", cfg.Drift.TimeoutDuration())
	}
	if cfg.CORS.Enabled {
		t.Error("CORS should be disabled by default")
	}
}

func TestLoad_FileValues(t *testing.T) {
	content := `server:
  port: 9000
  prefix: routes/
logging:
  level: debug
  format: json
backend:
  base_url: https://tpod.example.com/
  page_size: 2
  probe_endpoint: trainsets
drift:
  fail_on_mismatch: true
  timeout: 2
cors:
  enabled: true
  allowed_origins:
    - https://ui.example.com
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Prefix != "/routes" {
		t.Errorf("Expected normalized prefix /routes, got %q", cfg.Server.Prefix)
	}
	if cfg.Backend.BaseURL != "https://tpod.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.PageSize != 2 {
		t.Errorf("Expected page size 2, got %d", cfg.Backend.PageSize)
	}
	if cfg.Backend.ProbeName() != endpoints.Trainsets {
		t.Errorf("Expected trainsets probe, got %s", cfg.Backend.ProbeName())
	}
	if !cfg.Drift.FailOnMismatch || cfg.Drift.Timeout != 2 {
		t.Errorf("Unexpected drift config: %+v", cfg.Drift)
	}
	if !cfg.CORS.Enabled || len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("Unexpected CORS config: %+v", cfg.CORS)
	}
	if len(cfg.CORS.AllowedMethods) != 2 {
		t.Errorf("Expected default CORS methods, got %v", cfg.CORS.AllowedMethods)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unclosed\n")); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"port zero", "server:\n  port: 0\n", "invalid server port"},
		{"port too large", "server:\n  port: 65536\n", "invalid server port"},
		{"bad level", "logging:\n  level: verbose\n", "invalid logging level"},
		{"bad format", "logging:\n  format: xml\n", "invalid logging format"},
		{"bad scheme", "backend:\n  base_url: ftp://host\n", "http or https"},
		{"no host", "backend:\n  base_url: http://\n", "no host"},
		{"negative page size", "backend:\n  page_size: -2\n", "page_size cannot be negative"},
		{"unknown probe", "backend:\n  probe_endpoint: widgets\n", "unknown endpoint"},
		{"ui probe", "backend:\n  probe_endpoint: uiDetector\n", "need an api route"},
		{"field probe", "backend:\n  probe_endpoint: detectorDownloadField\n", "need an api route"},
		{"negative timeout", "drift:\n  timeout: -1\n", "cannot be negative"},
		{"wildcard with credentials", "cors:\n  enabled: true\n  allow_credentials: true\n  allowed_origins: ['*']\n", "wildcard"},
		{"credentials without origins", "cors:\n  enabled: true\n  allow_credentials: true\n", "at least one entry"},
		{"prefix with space", "server:\n  prefix: /api v1\n", "invalid server prefix"},
		{"prefix with brace", "server:\n  prefix: /{tenant}\n", "invalid server prefix"},
		{"prefix with empty segment", "server:\n  prefix: /api//v1\n", "invalid server prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errPart)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

func TestValidate_PortBoundary(t *testing.T) {
	for _, port := range []int{1, 65535} {
		cfg := &AppConfig{
			Server:  ServerConfig{Port: port},
			Backend: BackendConfig{BaseURL: "http://localhost:8000"},
		}
		if err := validate(cfg); err != nil {
			t.Errorf("port %d: unexpected error %v", port, err)
		}
	}
}

func TestValidate_AppliesFallbacks(t *testing.T) {
	cfg := &AppConfig{
		Server:  ServerConfig{Port: 80},
		Backend: BackendConfig{BaseURL: "http://backend"},
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if cfg.Logging.Path != Defaults.Logging.Path {
		t.Errorf("Expected default logging path, got %q", cfg.Logging.Path)
	}
	if cfg.Backend.ProbeEndpoint != "detectors" {
		t.Errorf("Expected default probe endpoint, got %q", cfg.Backend.ProbeEndpoint)
	}
	if cfg.Drift.Timeout != Defaults.Drift.Timeout {
		t.Errorf("Expected default drift timeout, got %d", cfg.Drift.Timeout)
	}
}

func TestValidate_PrefixAccepted(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"/":            "",
		"config":       "/config",
		"/api/v1.2/":   "/api/v1.2",
		"/tpod_routes": "/tpod_routes",
	}

	for in, want := range tests {
		cfg := validConfig()
		cfg.Server.Prefix = in
		if err := validate(cfg); err != nil {
			t.Errorf("prefix %q: unexpected error %v", in, err)
			continue
		}
		if cfg.Server.Prefix != want {
			t.Errorf("prefix %q normalized to %q, want %q", in, cfg.Server.Prefix, want)
		}
	}
}

func TestValidate_CORSEmptyOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.CORS = CORSConfig{Enabled: true}
	if err := validate(cfg); err != nil {
		t.Errorf("Empty origin list without credentials should be valid, got %v", err)
	}

	cfg.CORS.AllowCredentials = true
	if err := validate(cfg); err == nil {
		t.Error("Expected error for credentials with an empty origin list")
	}
}
