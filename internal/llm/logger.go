/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging verbosity level for generation calls
type LogLevel int

const (
	// LogLevelNone disables all generation logging
	LogLevelNone LogLevel = iota
	// LogLevelInfo logs call outcomes and errors
	LogLevelInfo
	// LogLevelDebug logs client configuration and sizes
	LogLevelDebug
	// LogLevelTrace logs prompt and response previews
	LogLevelTrace
)

// Logger handles structured logging for generation calls. Every helper in
// this file is best-effort: a logging problem must never fail the
// generation call it describes.
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
		logger: log.New(os.Stderr, "[LLM] ", log.LstdFlags),
	}
}

// SetLogLevel sets the global generation log level
func SetLogLevel(level LogLevel) {
	globalLogger.level = level
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.logger.Printf("[INFO] "+format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.logger.Printf("[DEBUG] "+format, args...)
	}
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.logger.Printf("[TRACE] "+format, args...)
	}
}

// LogGeneration logs the outcome of a generation call with timing
func LogGeneration(provider, model string, promptLen int, duration time.Duration, sqlLen int, err error) {
	if err != nil {
		globalLogger.Info("generation failed: provider=%s, model=%s, prompt_length=%d, duration=%s, error=%v",
			provider, model, promptLen, duration, err)
	} else {
		globalLogger.Info("generation succeeded: provider=%s, model=%s, prompt_length=%d, sql_length=%d, duration=%s",
			provider, model, promptLen, sqlLen, duration)
	}
}

// LogRequestTrace logs a trace-level preview of the outgoing prompt
func LogRequestTrace(provider, model, prompt string) {
	globalLogger.Trace("request details: provider=%s, model=%s, prompt_preview=%s",
		provider, model, truncate(prompt, 200))
}

// LogResponseTrace logs trace-level response information
func LogResponseTrace(provider, model string, statusCode, bodyLen int) {
	globalLogger.Trace("response details: provider=%s, model=%s, status_code=%d, body_length=%d",
		provider, model, statusCode, bodyLen)
}

// LogConnectionError logs connection errors
func LogConnectionError(provider, url string, err error) {
	globalLogger.Info("connection failed: provider=%s, url=%s, error=%v", provider, url, err)
}

// LogClientInit logs client initialization with credentials redacted
func LogClientInit(provider, model string, config map[string]string) {
	if globalLogger.level >= LogLevelDebug {
		configStr := ""
		for k, v := range config {
			if k == "api_key" {
				v = "***REDACTED***"
			}
			configStr += fmt.Sprintf("%s=%s ", k, v)
		}
		globalLogger.Debug("client initialized: provider=%s, model=%s, config=%s",
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
