// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured logging for the protocol, slog-backed.
// Components obtain a tagged logger via WithContext.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is the logging surface handed to components.
type Logger interface {
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type logger struct {
	inner *slog.Logger
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }

var root atomic.Pointer[logger]

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger.
func SetDefault(handler slog.Handler) {
	root.Store(&logger{slog.New(handler)})
}

// Root returns the root logger.
func Root() Logger {
	return root.Load()
}

// WithContext returns a logger tagged with the given context pairs.
// The conventional first pair is ("pkg", name).
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// NewLogger instantiates a logger over the given handler, independent of the
// root logger.
func NewLogger(handler slog.Handler) Logger {
	return &logger{slog.New(handler)}
}

// Trace logs at trace level on the root logger.
func Trace(msg string, ctx ...any) { root.Load().Trace(msg, ctx...) }

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) { root.Load().Debug(msg, ctx...) }

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { root.Load().Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { root.Load().Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { root.Load().Error(msg, ctx...) }

// StderrHandler returns a logfmt handler writing to stderr at the given
// verbosity.
func StderrHandler(level slog.Level) slog.Handler {
	var lvl slog.LevelVar
	lvl.Set(level)
	return LogfmtHandler(os.Stderr, &lvl)
}
