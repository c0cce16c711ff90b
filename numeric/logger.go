// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numeric

import "go.uber.org/zap"

// LogLevel controls the frequency and type of solver output.
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only one line when the solver stops
	LogLast LogLevel = 0
	// LogEval print also one line per iteration
	LogEval LogLevel = 1
	// LogTrace print details of every step
	LogTrace LogLevel = 99
)

// Logger handles logging output for the solvers.
// A nil *Logger or a nil Sink disables output.
type Logger struct {
	Level LogLevel
	Sink  *zap.Logger
}

// NewLogger builds a solver logger writing to sink at the given verbosity.
func NewLogger(level LogLevel, sink *zap.Logger) *Logger {
	return &Logger{Level: level, Sink: sink}
}

// Named returns a copy whose sink is scoped under name.
func (l *Logger) Named(name string) *Logger {
	if l == nil || l.Sink == nil {
		return nil
	}
	return &Logger{Level: l.Level, Sink: l.Sink.Named(name)}
}

// Enable reports whether messages of the given level are emitted.
func (l *Logger) Enable(level LogLevel) bool {
	return l != nil && l.Sink != nil && l.Level >= level
}

// Log writes one structured record.
func (l *Logger) Log(msg string, fields ...zap.Field) {
	if l == nil || l.Sink == nil {
		return
	}
	l.Sink.Info(msg, fields...)
}
