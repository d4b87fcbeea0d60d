package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, paths ...string) (*Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, paths ...string) (*Model, error) {
	return f(ctx, paths...)
}
