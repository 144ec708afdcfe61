// Package errtrack reports unexpected failures to Sentry. Every function is a
// no-op until Init has been called with a DSN.
package errtrack

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Config configures the Sentry client.
type Config struct {
	DSN         string
	Environment string
	Release     string
	ServerName  string
}

var enabled atomic.Bool

// Init initializes Sentry. An empty DSN leaves error tracking disabled.
func Init(cfg Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DSN == "" {
		logger.Debug("sentry dsn not configured, error tracking disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		ServerName:  cfg.ServerName,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	enabled.Store(true)
	logger.Info("sentry initialized", zap.String("environment", cfg.Environment))
	return nil
}

// Enabled reports whether Init configured a client.
func Enabled() bool {
	return enabled.Load()
}

// CaptureException records err with tags attached to a fresh scope.
func CaptureException(err error, tags map[string]string) {
	if err == nil || !Enabled() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	if !Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// RecoverAndCapture recovers from a panic, reports it and panics again.
// Use it deferred at the top of main.
func RecoverAndCapture() {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", r)
		}
		CaptureException(err, map[string]string{"kind": "panic"})
		Flush(2 * time.Second)
		panic(r)
	}
}
