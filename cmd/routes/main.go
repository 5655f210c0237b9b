package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/opentpod/routes/cmd/routes/internal/config"
	"github.com/opentpod/routes/cmd/routes/internal/constants"
	"github.com/opentpod/routes/cmd/routes/internal/drift"
	"github.com/opentpod/routes/cmd/routes/internal/export"
	"github.com/opentpod/routes/cmd/routes/internal/logging"
	"github.com/opentpod/routes/cmd/routes/internal/preflight"
	"github.com/opentpod/routes/cmd/routes/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: "+constants.DefaultConfigPath+")")
	exportFormat := flag.String("export", "", "write the route table as json, yaml or js and exit")
	outputPath := flag.String("o", "", "output file for -export (default: stdout)")
	checkOnly := flag.Bool("check", false, "run the page size drift check, print the report and exit")
	flag.Parse()

	// Export needs no configuration: the table is compiled in.
	if *exportFormat != "" {
		if err := runExport(*exportFormat, *outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *checkOnly {
		logging.Init(logging.LoggerConfig{
			Level:       logging.Level(cfg.Logging.Level),
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: config.ServiceName,
		})
		os.Exit(runCheck(cfg))
	}

	if _, err := preflight.ValidateAndCreate(preflight.LogChecks(cfg.Logging.Path)); err != nil {
		fmt.Fprintf(os.Stderr, "Preflight checks failed: %v\n", err)
		os.Exit(1)
	}

	logFile := filepath.Join(cfg.Logging.Path, constants.LogFileName)
	logging.Init(logging.LoggerConfig{
		Level:       logging.Level(cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		FilePath:    logFile,
		DualOutput:  cfg.Logging.Format == "console",
		ServiceName: config.ServiceName,
		Version:     config.Version(),
	})

	logging.Infof("%s %s starting", config.ServiceName, config.Version())
	logging.Infof("Log file: %s", logFile)
	logging.Infof("Backend: %s", cfg.Backend.BaseURL)

	checker := drift.NewChecker(cfg.Backend, cfg.Drift, http.DefaultClient)
	report, err := checker.Check(context.Background())
	if err == nil && report.Status == drift.StatusMismatch && cfg.Drift.FailOnMismatch {
		logging.Errorf("Refusing to start: %v", report.Err())
		os.Exit(1)
	}

	srv := server.New(cfg, checker, config.Version())
	if err := srv.Run(); err != nil {
		logging.ErrorWithErr("Server error", err)
		os.Exit(1)
	}

	logging.Info("Server stopped gracefully")
}

// runExport writes the route table in the given format to path, or stdout.
func runExport(format, path string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	if path == "" {
		return export.Write(os.Stdout, f)
	}

	if _, err := preflight.ValidateAndCreate(preflight.ExportChecks(path)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s export to %s\n", f, path)
	return nil
}

// runCheck performs one drift check and returns the process exit code.
func runCheck(cfg *config.AppConfig) int {
	checker := drift.NewChecker(cfg.Backend, cfg.Drift, http.DefaultClient)
	report, err := checker.Check(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if werr := enc.Encode(report); werr != nil {
		fmt.Fprintf(os.Stderr, "Failed to print report: %v\n", werr)
		return 1
	}
	if err != nil || report.Err() != nil {
		return 1
	}
	return 0
}
