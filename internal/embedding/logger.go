/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging verbosity level for embedding operations
type LogLevel int

const (
	// LogLevelNone disables all embedding logging
	LogLevelNone LogLevel = iota
	// LogLevelInfo logs basic information (API calls, errors)
	LogLevelInfo
	// LogLevelDebug logs detailed information (text lengths, dimensions, timing)
	LogLevelDebug
	// LogLevelTrace logs very detailed information (request/response previews)
	LogLevelTrace
)

// Logger handles structured logging for embedding operations. Every helper
// in this file is best-effort: a logging problem must never fail the
// embedding call it describes.
type Logger struct {
	level  LogLevel
	logger *log.Logger
}

var globalLogger = newLoggerFromEnv()

// newLoggerFromEnv builds the package logger with the level taken from
// PGEDGE_TEXT2SQL_LLM_LOG_LEVEL. Default is LogLevelNone when unset or
// unrecognized.
func newLoggerFromEnv() *Logger {
	levelStr := strings.ToLower(strings.TrimSpace(os.Getenv("PGEDGE_TEXT2SQL_LLM_LOG_LEVEL")))

	var level LogLevel
	switch levelStr {
	case "info":
		level = LogLevelInfo
	case "debug":
		level = LogLevelDebug
	case "trace":
		level = LogLevelTrace
	default:
		level = LogLevelNone
	}

	return &Logger{
		level:  level,
		logger: log.New(os.Stderr, "[EMBED] ", log.LstdFlags),
	}
}

// SetLogLevel sets the global embedding log level
func SetLogLevel(level LogLevel) {
	globalLogger.level = level
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	return globalLogger.level
}

// Info logs an informational message (API calls, errors)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.logger.Printf("[INFO] "+format, args...)
	}
}

// Debug logs a debug message (text lengths, dimensions, timing)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.logger.Printf("[DEBUG] "+format, args...)
	}
}

// Trace logs a trace message (request/response previews)
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.logger.Printf("[TRACE] "+format, args...)
	}
}

// LogAPICall logs an embedding API call with timing
func LogAPICall(provider, model string, textLen int, duration time.Duration, dimensions int, err error) {
	if err != nil {
		globalLogger.Info("API call failed: provider=%s, model=%s, text_length=%d, duration=%s, error=%v",
			provider, model, textLen, duration, err)
	} else {
		globalLogger.Info("API call succeeded: provider=%s, model=%s, text_length=%d, dimensions=%d, duration=%s",
			provider, model, textLen, dimensions, duration)
	}
}

// LogAPICallDetails logs detailed information about an API call
func LogAPICallDetails(provider, model, url string, textLen int) {
	globalLogger.Debug("Starting API call: provider=%s, model=%s, url=%s, text_length=%d",
		provider, model, url, textLen)
}

// LogRequestTrace logs trace-level request information
func LogRequestTrace(provider, model string, textPreview string) {
	globalLogger.Trace("Request details: provider=%s, model=%s, text_preview=%s",
		provider, model, truncate(textPreview, 100))
}

// LogResponseTrace logs trace-level response information
func LogResponseTrace(provider, model string, statusCode int, dimensions int) {
	globalLogger.Trace("Response details: provider=%s, model=%s, status_code=%d, dimensions=%d",
		provider, model, statusCode, dimensions)
}

// LogConnectionError logs connection errors
func LogConnectionError(provider, url string, err error) {
	globalLogger.Info("Connection failed: provider=%s, url=%s, error=%v",
		provider, url, err)
}

// LogProviderInit logs provider initialization
func LogProviderInit(provider, model string, config map[string]string) {
	if globalLogger.level >= LogLevelDebug {
		configStr := ""
		for k, v := range config {
			if k == "api_key" {
				v = "***REDACTED***"
			}
			configStr += fmt.Sprintf("%s=%s ", k, v)
		}
		globalLogger.Debug("Provider initialized: provider=%s, model=%s, config=%s",
			provider, model, strings.TrimSpace(configStr))
	}
}

// truncate truncates a string to maxLen characters, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
