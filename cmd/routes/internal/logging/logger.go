// Package logging provides structured logging with zerolog.
// It supports simple text, console and JSON formats, file output, request ID
// tracking, and masking of sensitive fields such as Django session cookies.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opentpod/routes/cmd/routes/internal/constants"
)

// simpleWriter formats JSON log lines as: [LEVEL](TIMESTAMP): {MESSAGE}
type simpleWriter struct {
	out io.Writer
}

func (sw *simpleWriter) Write(p []byte) (n int, err error) {
	var logEntry map[string]any
	if err := json.Unmarshal(p, &logEntry); err != nil {
		return sw.out.Write(p)
	}

	level, _ := logEntry["level"].(string)
	timestamp, _ := logEntry["time"].(string)
	message, _ := logEntry["message"].(string)

	formatted := fmt.Sprintf("[%s](%s): %s\n", strings.ToUpper(level), timestamp, message)
	if _, err := sw.out.Write([]byte(formatted)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// dualWriter sends each entry to a colorized console and a plain log file.
type dualWriter struct {
	consoleWriter io.Writer
	fileWriter    io.Writer
}

func (dw *dualWriter) Write(p []byte) (int, error) {
	_, err1 := dw.consoleWriter.Write(p)
	// File writer is always attempted, even if the console fails
	_, err2 := dw.fileWriter.Write(p)
	if err1 != nil {
		return len(p), err1
	}
	return len(p), err2
}

// Level represents logging levels
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// Format is the output format: simple, console or json
	Format string

	// Output is the writer for logs (default: os.Stdout)
	Output io.Writer

	// FilePath is the path to the log file (if specified, Output is ignored)
	FilePath string

	// DualOutput writes console format to stdout and simple format to FilePath
	DualOutput bool

	ServiceName string
	Version     string

	// SensitiveFields are extra field names to mask, on top of constants.SensitiveFields
	SensitiveFields []string
}

// Logger wraps zerolog for structured logging
type Logger struct {
	logger          zerolog.Logger
	config          LoggerConfig
	sensitiveFields map[string]bool
}

// openLogFile creates the parent directory and opens path for appending.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, constants.FilePermissions)
}

// NewLogger creates a new structured logger. If the log file cannot be opened
// the logger falls back to stdout.
func NewLogger(config LoggerConfig) *Logger {
	if config.Level == "" {
		config.Level = LevelInfo
	}

	var output io.Writer = os.Stdout
	if config.Output != nil {
		output = config.Output
	}

	dual := false
	if config.FilePath != "" {
		file, err := openLogFile(config.FilePath)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", config.FilePath, err)
			output = os.Stdout
		case config.DualOutput:
			output = &dualWriter{
				consoleWriter: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
				fileWriter:    &simpleWriter{out: file},
			}
			dual = true
		default:
			output = file
		}
	}

	switch {
	case dual, config.Format == "json":
		// dualWriter formats internally; json is written as-is
	case config.Format == "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	default:
		output = &simpleWriter{out: output}
	}

	ctx := zerolog.New(output).Level(config.Level.zerolog()).With().Timestamp()
	if config.ServiceName != "" {
		ctx = ctx.Str("service", config.ServiceName)
	}
	if config.Version != "" {
		ctx = ctx.Str("version", config.Version)
	}

	sensitiveFields := make(map[string]bool)
	for _, field := range constants.SensitiveFields {
		sensitiveFields[field] = true
	}
	for _, field := range config.SensitiveFields {
		sensitiveFields[strings.ToLower(field)] = true
	}

	return &Logger{
		logger:          ctx.Logger(),
		config:          config,
		sensitiveFields: sensitiveFields,
	}
}

// WithContext returns a logger carrying the request ID found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	newLogger := *l
	if requestID := GetRequestID(ctx); requestID != "" {
		newLogger.logger = l.logger.With().Str(constants.ContextKeyRequestID, requestID).Logger()
	}
	return &newLogger
}

// WithField returns a logger with an additional field
func (l *Logger) WithField(key string, value any) *Logger {
	newLogger := *l
	newLogger.logger = l.logger.With().Interface(key, l.maskSensitive(key, value)).Logger()
	return &newLogger
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newLogger := *l
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, l.maskSensitive(key, value))
	}
	newLogger.logger = ctx.Logger()
	return &newLogger
}

func (l *Logger) maskSensitive(key string, value any) any {
	if l.sensitiveFields[strings.ToLower(key)] {
		return constants.RedactedPlaceholder
	}
	return value
}

func (l *Logger) Debug(msg string)                  { l.logger.Debug().Msg(msg) }
func (l *Logger) Debugf(format string, args ...any) { l.logger.Debug().Msgf(format, args...) }
func (l *Logger) Info(msg string)                   { l.logger.Info().Msg(msg) }
func (l *Logger) Infof(format string, args ...any)  { l.logger.Info().Msgf(format, args...) }
func (l *Logger) Warn(msg string)                   { l.logger.Warn().Msg(msg) }
func (l *Logger) Warnf(format string, args ...any)  { l.logger.Warn().Msgf(format, args...) }
func (l *Logger) Error(msg string)                  { l.logger.Error().Msg(msg) }
func (l *Logger) Errorf(format string, args ...any) { l.logger.Error().Msgf(format, args...) }

// ErrorWithErr logs an error with the error object
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

type contextKey string

const requestIDKey contextKey = constants.ContextKeyRequestID

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID gets the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLoggerConfig holds configuration for request logging middleware
type RequestLoggerConfig struct {
	Logger *Logger

	// SkipPaths are paths that should not be logged, e.g. /health
	SkipPaths []string
}

// RequestLogger is middleware that assigns request IDs and logs each request
type RequestLogger struct {
	config    RequestLoggerConfig
	skipPaths map[string]bool
}

// NewRequestLogger creates a new request logging middleware
func NewRequestLogger(config RequestLoggerConfig) *RequestLogger {
	if config.Logger == nil {
		config.Logger = GetLogger()
	}
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return &RequestLogger{
		config:    config,
		skipPaths: skipPaths,
	}
}

// Middleware returns the HTTP middleware function
func (rl *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(constants.HeaderRequestID, requestID)
		r = r.WithContext(SetRequestID(r.Context(), requestID))

		if rl.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		rl.config.Logger.WithContext(r.Context()).WithFields(map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
		}).Debug("Request started")

		next.ServeHTTP(rw, r)

		event := rl.config.Logger.logger.Info()
		if rw.statusCode >= 500 {
			event = rl.config.Logger.logger.Error()
		} else if rw.statusCode >= 400 {
			event = rl.config.Logger.logger.Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", time.Since(start)).
			Int("bytes", rw.bytesWritten).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Request completed")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and bytes
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// Init initializes the global logger
func Init(config LoggerConfig) {
	logger := NewLogger(config)

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetLogger returns the global logger, creating a JSON stdout logger if Init
// was never called. It is safe for concurrent use.
func GetLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewLogger(LoggerConfig{
			Level:  LevelInfo,
			Format: "json",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(msg string) { GetLogger().Debug(msg) }

// Debugf logs a formatted debug message using the global logger
func Debugf(format string, args ...any) { GetLogger().Debugf(format, args...) }

// Info logs an info message using the global logger
func Info(msg string) { GetLogger().Info(msg) }

// Infof logs a formatted info message using the global logger
func Infof(format string, args ...any) { GetLogger().Infof(format, args...) }

// Warn logs a warning message using the global logger
func Warn(msg string) { GetLogger().Warn(msg) }

// Warnf logs a formatted warning message using the global logger
func Warnf(format string, args ...any) { GetLogger().Warnf(format, args...) }

// Error logs an error message using the global logger
func Error(msg string) { GetLogger().Error(msg) }

// Errorf logs a formatted error message using the global logger
func Errorf(format string, args ...any) { GetLogger().Errorf(format, args...) }

// ErrorWithErr logs an error with the error object using the global logger
func ErrorWithErr(msg string, err error) { GetLogger().ErrorWithErr(msg, err) }
