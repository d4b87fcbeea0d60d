package app

import (
	"errors"
	"fmt"
)

// Output formats understood by the report writer.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths []string // files or directories holding .hcl, .yaml or .yml files

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// Strict turns a bad operation or value block into a fatal error instead
	// of a warning.
	Strict       bool
	OutputFormat string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	for _, p := range cfg.Paths {
		if p == "" {
			return nil, errors.New("configuration paths cannot be empty")
		}
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	switch cfg.OutputFormat {
	case "":
		cfg.OutputFormat = OutputText
	case OutputText, OutputYAML, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output format %q: must be 'text', 'yaml' or 'json'", cfg.OutputFormat)
	}

	return &cfg, nil
}
