//go:build prod

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the active log file inside Config.Dir.
const LogFileName = "grocerycheck.log"

// Setup writes logs to a rotating file under cfg.Dir. When cfg.Output is set
// the same records are also written there, so CI job output keeps them.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	dir := cfg.Dir
	if dir == "" {
		dir = DefaultLogDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	var w io.Writer = rotator
	if cfg.Output != nil {
		w = io.MultiWriter(rotator, cfg.Output)
	}

	logger := slog.New(newHandler(w, cfg))
	setGlobal(logger)
	return logger, rotator.Close, nil
}
