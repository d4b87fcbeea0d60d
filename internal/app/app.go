package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/vk/precomp/internal/config"
)

// ErrInvalidConfig marks failures caused by the declarative files rather than
// by processing: nothing to load, a parse error, or a bad block in strict
// mode.
var ErrInvalidConfig = errors.New("invalid configuration")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	loaders []config.Loader
	config  *Config
}

// NewApp is the constructor for the main application. The report goes to
// outW and logs to logW. Every loader is asked for the configured paths and
// their models are merged.
func NewApp(outW, logW io.Writer, cfg *Config, loaders ...config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.", "loaders", len(loaders))

	return &App{
		outW:    outW,
		logger:  logger,
		loaders: loaders,
		config:  cfg,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
