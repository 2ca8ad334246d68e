// Package logger is the synchronizer's logging surface. It mirrors the call
// shape used throughout the teacher's cmd package (logger.LogIf(ctx, err),
// logger.Info(...), logger.Error(...)) but is backed by go.uber.org/zap, a
// dependency already present in the teacher's go.mod but unexercised by the
// retrieved cmd/*.go subset — the teacher's own internal/logger.go implementing
// these calls wasn't part of the retrieval pack, so this package gives the
// convention a concrete home.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// SetLogger installs l as the package-level logger. Call once at process start
// (cmd/server_main.go's serverMain); library code defaults to a no-op logger so tests never panic on
// a nil logger.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// LogIf logs err at warning level if it is non-nil, tagged with any fields
// already attached to ctx (none, currently; reserved so callers can carry
// request-scoped fields the way logger.GetReqInfo(ctx) does in the teacher).
// It is a no-op when err is nil, so call sites can write
// logger.LogIf(ctx, someFallibleCall()) unconditionally, matching the teacher's
// idiom exactly.
func LogIf(ctx context.Context, err error, fields ...interface{}) {
	if err == nil {
		return
	}
	current().Warnw(err.Error(), fields...)
}

// Info logs an informational message.
func Info(msg string, fields ...interface{}) {
	current().Infow(msg, fields...)
}

// Error logs an error-level message not tied to a single err value.
func Error(msg string, fields ...interface{}) {
	current().Errorw(msg, fields...)
}

// NewProduction builds a production zap.SugaredLogger (JSON encoding, info
// level), the default for cmd/server_main.go's daemon bootstrap.
func NewProduction() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
