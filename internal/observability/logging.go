// Package observability builds the structured loggers shared by every Taktiks component.
package observability

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/taktiks/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
// The json format selects the production encoder, console the development encoder;
// both stamp entries with ISO8601 times and write to stderr.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		// Input bursts log per event; sampling would hide the down/up pairing.
		zapCfg.Sampling = nil
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Component returns a child logger for the named subsystem, tagged with the player seat
// when seat is positive.
//
// Precondition: logger must be non-nil; name must be non-empty.
// Postcondition: The returned logger's name ends with name.
func Component(logger *zap.Logger, name string, seat int) *zap.Logger {
	l := logger.Named(name)
	if seat > 0 {
		l = l.With(zap.Int("seat", seat))
	}
	return l
}

// Sync flushes logger, ignoring the EINVAL/ENOTTY errors that terminals return for
// fsync on stderr.
//
// Postcondition: Returns nil or the first flush error that is not a terminal artifact.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	if errors.Is(err, os.ErrInvalid) {
		return nil
	}
	return fmt.Errorf("syncing logger: %w", err)
}
