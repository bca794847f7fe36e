/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package log provides the structured, component-tagged logger used across the
// policy evaluator and its supporting services.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync"

	sysContext "github.com/tianyayunhai/ranger/internal/system/context"
)

// LoggerKeyComponentName is the field key every package uses to tag its logger
// with the name of the component emitting the record.
const LoggerKeyComponentName = "component"

// Field is a single structured logging attribute.
type Field = slog.Attr

// String builds a string field.
func String(key, value string) Field { return slog.String(key, value) }

// Int builds an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Any builds a field from an arbitrary value.
func Any(key string, value any) Field { return slog.Any(key, value) }

// Error builds an "error" field from an error value.
func Error(err error) Field { return slog.Any("error", err) }

// MaskString masks all but the first and last character of a sensitive value,
// for use when logging principal identifiers (users, groups) at non-debug levels.
func MaskString(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	return value[:1] + "***" + value[len(value)-1:]
}

// Logger wraps slog.Logger with the component-tagging convention used throughout
// this module: every service obtains one via GetLogger().With(...) and carries it
// on the struct rather than threading a logger through every call.
type Logger struct {
	inner *slog.Logger
}

var (
	root     *Logger
	rootOnce sync.Once
)

// GetLogger returns the process-wide root logger. Call .With(...) to scope it to a
// component before storing it on a service struct.
func GetLogger() *Logger {
	rootOnce.Do(func() {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		root = &Logger{inner: slog.New(handler)}
	})
	return root
}

// GetLoggerWithContext returns a logger enriched with the trace ID carried on ctx.
// This is the recommended way to obtain a logger in request-scoped code; if ctx
// carries no trace ID one is generated so the returned logger is always usable.
func GetLoggerWithContext(ctx context.Context) *Logger {
	return GetLogger().WithContext(ctx)
}

// With returns a child logger with the given fields attached to every subsequent
// record.
func (l *Logger) With(fields ...Field) *Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &Logger{inner: l.inner.With(args...)}
}

// WithContext returns a child logger carrying the request's trace ID.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.With(String("traceId", sysContext.GetTraceID(ctx)))
}

// IsDebugEnabled reports whether debug-level records are currently emitted, so
// callers can skip building expensive fields when they are not.
func (l *Logger) IsDebugEnabled() bool {
	return l.inner.Enabled(context.Background(), slog.LevelDebug)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.log(slog.LevelInfo, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.log(slog.LevelWarn, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *Logger) log(level slog.Level, msg string, fields []Field) {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	l.inner.Log(context.Background(), level, msg, args...)
}
