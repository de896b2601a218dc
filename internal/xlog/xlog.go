// Package xlog is the ambient logging seam shared by every package in this
// module. It follows the teacher's eventloop/logging.go design: a small
// interface, a package-level default that can be swapped, and a concrete
// backing implementation (here, go.uber.org/zap) rather than a bespoke
// writer. Packages depending on xlog never import zap directly.
package xlog

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the minimal structured logging surface this module needs.
// Fields are passed as alternating key/value pairs, mirroring zap's
// SugaredLogger convention, so adapting a different backend is a thin shim.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

var (
	mu      sync.RWMutex
	current Logger = noop{}
)

// Set installs l as the package-wide logger. Passing nil restores the no-op
// default. Intended to be called once, at process start, by the consuming
// application - not by library code in this module.
func Set(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = noop{}
	}
	current = l
}

// Get returns the currently installed logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// NewZap adapts a *zap.Logger (SugaredLogger under the hood) to Logger.
func NewZap(z *zap.Logger) Logger {
	return zapLogger{s: z.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (z zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
