// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package xlog is an injectable logging seam. No other package of this
// module logs through it: the render graph, dependency engine, render
// backing and virtual frame deque report failures only through their
// return values. Grounded on the teacher's hal/logger.go: a minimal interface with a
// stdlib-backed default, swappable via SetLogger, so embedding
// applications can route warnings into their own logging stack without
// this module importing anything beyond log.
package xlog

import (
	"log"
	"os"
)

// Logger is the narrow surface a replacement logger implements.
// Debugf is for verbose per-call tracing (dropped by the default
// logger); the default logger prints Warnf and Errorf with a WARN or
// ERROR prefix.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

var current Logger = stdLogger{l: log.New(os.Stderr, "rendergraph: ", log.LstdFlags)}

// SetLogger replaces the package-wide logger. Not safe to call
// concurrently with logging calls; intended for startup configuration.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	current = l
}

func Debugf(format string, args ...any) { current.Debugf(format, args...) }
func Warnf(format string, args ...any)  { current.Warnf(format, args...) }
func Errorf(format string, args ...any) { current.Errorf(format, args...) }

type stdLogger struct {
	l *log.Logger
}

func (s stdLogger) Debugf(format string, args ...any) {
	// Debug tracing is opt-in; the default logger drops it to keep
	// normal operation quiet.
}

func (s stdLogger) Warnf(format string, args ...any) {
	s.l.Printf("WARN "+format, args...)
}

func (s stdLogger) Errorf(format string, args ...any) {
	s.l.Printf("ERROR "+format, args...)
}
