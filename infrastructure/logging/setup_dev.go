//go:build !prod

package logging

import (
	"log/slog"
	"os"
)

// Setup initializes logging for development mode.
// Logs go to cfg.Output (stderr by default); no file output.
// Returns the configured logger, a no-op close function, and any error.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := slog.New(newHandler(out, cfg))
	setGlobal(logger)

	// No resources to close in dev mode
	closeFn := func() error { return nil }

	return logger, closeFn, nil
}
