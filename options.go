package hprose

import (
	"fmt"
	"log/slog"
)

// Option represents a configuration option for a Writer, Reader or Codec.
type Option func(*Config) error

// WithMode sets the member selection mode for struct types.
func WithMode(mode Mode) Option {
	return func(c *Config) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfiguration, int(mode))
		}
		c.Mode = mode
		return nil
	}
}

// WithSimple disables reference tracking on the writer.
func WithSimple(simple bool) Option {
	return func(c *Config) error {
		c.Simple = simple
		return nil
	}
}

// WithRegistry sets the codec registry.
func WithRegistry(registry *Registry) Option {
	return func(c *Config) error {
		if registry == nil {
			return fmt.Errorf("%w: registry cannot be nil", ErrInvalidConfiguration)
		}
		c.Registry = registry
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfiguration)
		}
		c.Logger = logger
		return nil
	}
}

// WithMaxDepth bounds container nesting on both encode and decode.
func WithMaxDepth(depth int) Option {
	return func(c *Config) error {
		if depth <= 0 {
			return fmt.Errorf("%w: max depth must be positive, got %d", ErrInvalidConfiguration, depth)
		}
		c.MaxDepth = depth
		return nil
	}
}
