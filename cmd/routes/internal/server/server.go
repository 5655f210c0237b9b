// Package server exposes the route table over HTTP so that browser clients and
// deployment tooling read paths and the page size from one place.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/cors"

	"github.com/opentpod/routes/cmd/routes/internal/config"
	"github.com/opentpod/routes/cmd/routes/internal/constants"
	"github.com/opentpod/routes/cmd/routes/internal/drift"
	"github.com/opentpod/routes/cmd/routes/internal/endpoints"
	apierrors "github.com/opentpod/routes/cmd/routes/internal/errors"
	"github.com/opentpod/routes/cmd/routes/internal/export"
	"github.com/opentpod/routes/cmd/routes/internal/logging"
)

// RouteResponse describes a single route table entry
type RouteResponse struct {
	Name string         `json:"name"`
	Path string         `json:"path"`
	Kind endpoints.Kind `json:"kind"`
}

// PaginationResponse is returned by the pagination endpoint
type PaginationResponse struct {
	Total    int `json:"total"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

// Server represents the HTTP server
type Server struct {
	config  *config.AppConfig
	drift   *drift.Checker
	errors  *apierrors.ErrorHandler
	logger  *logging.Logger
	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
	version string
}

// New creates a new server instance. checker may be nil, in which case the
// drift endpoint reports that no check has run.
func New(cfg *config.AppConfig, checker *drift.Checker, version string) *Server {
	mux := http.NewServeMux()
	logger := logging.GetLogger()

	srv := &Server{
		config:  cfg,
		drift:   checker,
		logger:  logger,
		errors:  apierrors.NewErrorHandler(apierrors.ErrorHandlerConfig{Logger: logger, LogStackTrace: true}),
		mux:     mux,
		version: version,
	}

	srv.setupRoutes()
	srv.handler = srv.buildMiddleware(mux)
	srv.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.handler,
		ReadTimeout:  constants.HTTPReadTimeout,
		WriteTimeout: constants.HTTPWriteTimeout,
		IdleTimeout:  constants.HTTPIdleTimeout,
	}

	return srv
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	prefix := s.config.Server.Prefix

	s.mux.HandleFunc(prefix+"/health", s.onlyGet(s.healthHandler))
	s.mux.HandleFunc(prefix+"/routes", s.onlyGet(s.listRoutesHandler))
	s.mux.HandleFunc(prefix+"/routes/{name}", s.onlyGet(s.getRouteHandler))
	s.mux.HandleFunc(prefix+"/pagination", s.onlyGet(s.paginationHandler))
	s.mux.HandleFunc(prefix+"/drift", s.onlyGet(s.driftHandler))

	s.mux.HandleFunc("/", s.notFoundHandler)
}

// buildMiddleware wraps the mux, outermost first: request logging, panic
// recovery, CORS. Recovery sits inside the logger so recovered panics are
// logged as 500s with their request ID. An empty origin list allows no
// origin, so no CORS headers are sent at all.
func (s *Server) buildMiddleware(next http.Handler) http.Handler {
	h := next

	if s.config.CORS.Enabled && len(s.config.CORS.AllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   s.config.CORS.AllowedMethods,
			AllowedHeaders:   s.config.CORS.AllowedHeaders,
			ExposedHeaders:   []string{constants.HeaderRequestID},
			AllowCredentials: s.config.CORS.AllowCredentials,
			MaxAge:           s.config.CORS.MaxAge,
		}).Handler(h)
	}

	h = s.errors.RecoveryMiddleware(h)

	requestLogger := logging.NewRequestLogger(logging.RequestLoggerConfig{
		Logger:    s.logger,
		SkipPaths: []string{s.config.Server.Prefix + "/health"},
	})
	return requestLogger.Middleware(h)
}

// onlyGet rejects every method except GET and HEAD with a JSON 405.
func (s *Server) onlyGet(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			s.errors.WriteError(w, r, apierrors.NewMethodNotAllowedError(r.Method))
			return
		}
		next(w, r)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Infof("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown
func (s *Server) Run() error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- s.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Infof("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
	}

	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "live",
		"name":    config.ServiceName,
		"version": s.version,
	})
}

// listRoutesHandler returns the whole table, or one kind of route when the
// kind query parameter is set.
func (s *Server) listRoutesHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(constants.QueryParamKind)
	if raw == "" {
		s.writeJSON(w, http.StatusOK, export.NewDocument())
		return
	}

	kind, err := endpoints.ParseKind(raw)
	if err != nil {
		s.errors.WriteError(w, r, apierrors.NewInvalidInputError(constants.QueryParamKind, err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, export.NewDocumentOf(endpoints.OfKind(kind)))
}

func (s *Server) getRouteHandler(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("name")
	name, err := endpoints.Parse(key)
	if err != nil {
		s.errors.WriteErrorFromError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, RouteResponse{
		Name: name.String(),
		Path: name.Path(),
		Kind: name.Kind(),
	})
}

func (s *Server) paginationHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(constants.QueryParamTotal)
	if raw == "" {
		s.errors.WriteError(w, r, apierrors.NewInvalidInputError(constants.QueryParamTotal, "total is required"))
		return
	}

	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 || total > constants.MaxPaginationTotal {
		s.errors.WriteError(w, r, apierrors.NewInvalidInputError(constants.QueryParamTotal,
			fmt.Sprintf("total must be an integer between 0 and %d", constants.MaxPaginationTotal)))
		return
	}

	s.writeJSON(w, http.StatusOK, PaginationResponse{
		Total:    total,
		PageSize: endpoints.PageSize,
		Pages:    endpoints.PageCount(total),
	})
}

func (s *Server) driftHandler(w http.ResponseWriter, r *http.Request) {
	var report *drift.Report
	if s.drift != nil {
		report = s.drift.Last()
	}
	if report == nil {
		s.errors.WriteError(w, r, apierrors.NewServiceUnavailableError("drift check has not run"))
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.errors.WriteError(w, r, apierrors.NewNotFoundError("Endpoint"))
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.ErrorWithErr("Error encoding JSON response", err)
	}
}
