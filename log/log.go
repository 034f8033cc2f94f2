// Copyright 2015 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the structured, leveled logging used throughout
// go-probeum. It is a thin wrapper over log/slog so call sites keep the
// familiar key-value calling convention (log.Debug("msg", "key", val, ...))
// regardless of which structured backend ends up wired in.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the interface satisfied by both the package-level default
// logger and any contextual logger created with New.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

// levelTrace sits below slog.LevelDebug so "Trace" calls can still be routed
// somewhere distinct from "Debug" without inventing a parallel backend.
const levelTrace = slog.Level(-8)

type logger struct {
	inner *slog.Logger
}

var root Logger = &logger{inner: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelTrace}))}

// New creates a contextual logger carrying the given key-value pairs on
// every subsequent call, e.g. log.New("peer", id).
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.inner.Log(context.Background(), levelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.inner.Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.inner.Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.inner.Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.inner.Error(msg, ctx...) }

// Package-level convenience functions mirroring the teacher's call-site
// convention (log.Debug("msg", "k", v) used throughout probe/handler.go).
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }

// SetDefault swaps out the package-level root logger, used by tests that
// want to silence or capture log output.
func SetDefault(l Logger) { root = l }
