// Package logger builds the zap loggers used by the recap binaries.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for mode "prod" or "production" and a
// console development logger otherwise. level is a zap level name; empty
// selects info.
func New(mode, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Redacted masks all but the last four characters of a credential so it can
// be logged for troubleshooting.
func Redacted(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "[REDACTED]"
	}
	return "[REDACTED]" + secret[len(secret)-4:]
}
