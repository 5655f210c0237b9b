// Package preflight prepares the filesystem before logging starts.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opentpod/routes/cmd/routes/internal/constants"
)

// FileCheck represents a required file or directory
type FileCheck struct {
	Path      string
	IsDir     bool
	FailFatal bool // If true, failure to create aborts startup
}

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Path    string
	Exists  bool
	Created bool
	Error   error
}

// LogChecks returns the checks run before the service starts logging.
func LogChecks(logDir string) []FileCheck {
	return []FileCheck{{Path: logDir, IsDir: true, FailFatal: true}}
}

// ExportChecks returns the checks for writing an export to path. Only the
// parent directory is required; the file itself is replaced.
func ExportChecks(path string) []FileCheck {
	return []FileCheck{{Path: filepath.Dir(path), IsDir: true, FailFatal: true}}
}

// ValidateAndCreate checks that required paths exist and creates missing ones.
// It returns a result for every check and the first fatal error, if any.
func ValidateAndCreate(checks []FileCheck) ([]CheckResult, error) {
	results := make([]CheckResult, 0, len(checks))
	var fatal error

	for _, check := range checks {
		result := check.run()
		if result.Error != nil && check.FailFatal && fatal == nil {
			fatal = result.Error
		}
		results = append(results, result)
	}

	return results, fatal
}

func (check FileCheck) run() CheckResult {
	result := CheckResult{Path: check.Path}

	info, err := os.Stat(check.Path)
	switch {
	case err == nil:
		result.Exists = true
		if check.IsDir && !info.IsDir() {
			result.Error = fmt.Errorf("path exists but is not a directory: %s", check.Path)
		} else if !check.IsDir && info.IsDir() {
			result.Error = fmt.Errorf("path exists but is a directory: %s", check.Path)
		}
	case errors.Is(err, os.ErrNotExist):
		result.Error = check.create()
		result.Created = result.Error == nil
	default:
		result.Error = fmt.Errorf("failed to check path %s: %w", check.Path, err)
	}

	return result
}

func (check FileCheck) create() error {
	if check.IsDir {
		if err := os.MkdirAll(check.Path, constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", check.Path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(check.Path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", check.Path, err)
	}
	// O_EXCL so an existing file created concurrently is never truncated
	f, err := os.OpenFile(check.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", check.Path, err)
	}
	return f.Close()
}
