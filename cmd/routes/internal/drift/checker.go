// Package drift checks that the frontend page size agrees with the backend.
//
// endpoints.PageSize has to equal PAGE_SIZE in the backend's REST framework
// settings, but nothing links the two values. The checker compares them once
// at startup, either against a page size declared in configuration or by
// reading the first page of a paginated backend list.
package drift

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opentpod/routes/cmd/routes/internal/config"
	"github.com/opentpod/routes/cmd/routes/internal/constants"
	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
	"github.com/opentpod/routes/cmd/routes/internal/logging"
)

// ErrMismatch is returned by Report.Err when the page sizes differ.
var ErrMismatch = errors.New("page size mismatch")

// maxProbeBody caps how much of the backend response is read.
const maxProbeBody = 4 << 20

// Status is the outcome of a drift check
type Status string

const (
	StatusConsistent   Status = "consistent"
	StatusMismatch     Status = "mismatch"
	StatusInconclusive Status = "inconclusive"
	StatusSkipped      Status = "skipped"
	StatusError        Status = "error"
)

// Source tells where the backend page size came from
type Source string

const (
	// SourceDeclared means backend.page_size was set in configuration.
	SourceDeclared Source = "declared"

	// SourceProbe means the size was read from a backend list response.
	SourceProbe Source = "probe"
)

// Report is the result of one drift check
type Report struct {
	ID        string        `json:"id"`
	Status    Status        `json:"status"`
	Frontend  int           `json:"frontend_page_size"`
	Backend   int           `json:"backend_page_size,omitempty"`
	Source    Source        `json:"source,omitempty"`
	Probe     string        `json:"probe_url,omitempty"`
	Message   string        `json:"message"`
	CheckedAt time.Time     `json:"checked_at"`
	Duration  time.Duration `json:"duration"`
	TimedOut  bool          `json:"timed_out,omitempty"`
}

// Err returns ErrMismatch for a mismatch report and nil otherwise.
func (r *Report) Err() error {
	if r.Status != StatusMismatch {
		return nil
	}
	return fmt.Errorf("%w: frontend %d, backend %d", ErrMismatch, r.Frontend, r.Backend)
}

// page is the envelope of a paginated REST framework list response.
type page struct {
	Count    *int              `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker compares endpoints.PageSize against the backend
type Checker struct {
	backend  config.BackendConfig
	drift    config.DriftConfig
	client   Doer
	frontend int

	mu   sync.RWMutex
	last *Report
}

// NewChecker creates a checker. A nil client means http.DefaultClient.
func NewChecker(backend config.BackendConfig, drift config.DriftConfig, client Doer) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		backend:  backend,
		drift:    drift,
		client:   client,
		frontend: endpoints.PageSize,
	}
}

// Last returns the most recent report, or nil before the first check.
func (c *Checker) Last() *Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Check runs the comparison and records the report. The error is non-nil only
// when the backend could not be asked; a mismatch is reported through the
// report status.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		ID:        ulid.MustNew(ulid.Timestamp(start), rand.Reader).String(),
		Frontend:  c.frontend,
		CheckedAt: start.UTC(),
	}

	var err error
	switch {
	case !c.drift.Enabled:
		report.Status = StatusSkipped
		report.Message = constants.DriftMessages.Disabled
	case c.backend.PageSize > 0:
		report.Source = SourceDeclared
		c.compare(report, c.backend.PageSize)
	default:
		err = c.probe(ctx, report)
	}

	report.Duration = time.Since(start)
	c.log(report, err)

	c.mu.Lock()
	c.last = report
	c.mu.Unlock()

	return report, err
}

func (c *Checker) compare(report *Report, backend int) {
	report.Backend = backend
	if backend == c.frontend {
		report.Status = StatusConsistent
		report.Message = constants.DriftMessages.Consistent
		return
	}
	report.Status = StatusMismatch
	report.Message = constants.DriftMessages.Mismatch
}

// ProbeURL returns the backend URL of the first page of the probe list.
func (c *Checker) ProbeURL() string {
	q := url.Values{}
	q.Set(constants.QueryParamPage, "1")
	return c.backend.BaseURL + c.backend.ProbeName().Path() + "?" + q.Encode()
}

func (c *Checker) probe(ctx context.Context, report *Report) error {
	report.Source = SourceProbe
	report.Probe = c.ProbeURL()

	timeout := c.drift.TimeoutDuration()
	if timeout <= 0 {
		timeout = constants.DriftCheckTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(err error) error {
		report.Status = StatusError
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			report.TimedOut = true
			report.Message = constants.DriftMessages.Timeout
			return fmt.Errorf("%s: %w", constants.DriftMessages.Timeout, err)
		}
		report.Message = err.Error()
		return err
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, report.Probe, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to build probe request: %w", err))
	}
	req.Header.Set(constants.HeaderAccept, constants.MIMEApplicationJSON)

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to reach backend: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("backend probe returned status %d", resp.StatusCode))
	}

	var p page
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProbeBody)).Decode(&p); err != nil {
		return fail(fmt.Errorf("failed to decode backend list: %w", err))
	}
	if p.Count == nil || p.Results == nil {
		return fail(fmt.Errorf("backend list at %s is not paginated", c.backend.ProbeName().Path()))
	}

	n := len(p.Results)
	switch {
	case p.Next != nil:
		// A page with a successor is full.
		c.compare(report, n)
	case n > c.frontend:
		// Only page, and it already holds more than a frontend page.
		report.Backend = n
		report.Status = StatusMismatch
		report.Message = constants.DriftMessages.Mismatch
	default:
		report.Backend = n
		report.Status = StatusInconclusive
		report.Message = constants.DriftMessages.Inconclusive
	}

	return nil
}

func (c *Checker) log(report *Report, err error) {
	log := logging.GetLogger().WithFields(map[string]any{
		"drift_id": report.ID,
		"frontend": report.Frontend,
		"backend":  report.Backend,
		"source":   string(report.Source),
	})

	switch report.Status {
	case StatusConsistent:
		log.Info("Drift check passed: " + report.Message)
	case StatusMismatch:
		log.Warnf("Drift check failed: %s (frontend %d, backend %d)", report.Message, report.Frontend, report.Backend)
	case StatusInconclusive:
		log.Warn("Drift check inconclusive: " + report.Message)
	case StatusSkipped:
		log.Debug(report.Message)
	case StatusError:
		log.ErrorWithErr("Drift check error", err)
	}
}
