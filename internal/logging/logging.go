// Package logging builds the shared zap logger. Console encoding by
// default; level comes from config with a --verbose escape hatch.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a zap logger at the given level ("debug", "info",
// "warn", "error"). verbose forces debug regardless of level.
func New(level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Nop returns a no-op logger for tests and optional dependencies.
func Nop() *zap.Logger { return zap.NewNop() }
