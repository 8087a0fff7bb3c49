package hprose

import (
	"fmt"
	"io"
	"log/slog"
)

// Config holds the settings shared by Writer, Reader and Codec.
//
// This struct contains only data. It is normally built from Options, but it can
// also be loaded from a file with LoadConfigFile and turned into Options.
//
// Optional fields (defaults are applied if empty):
//   - Mode: member selection for struct types (default: MemberMode)
//   - Registry: codec registry (default: DefaultRegistry())
//   - Logger: diagnostics sink (default: the registry's logger)
//   - MaxDepth: container nesting limit (default: 512)
type Config struct {
	// Mode selects which members of struct types are serialized.
	Mode Mode

	// Simple disables the reference table on the writer. Only use it for
	// values that contain no shared or cyclic parts.
	Simple bool

	// Registry resolves codecs, member lists and class aliases.
	Registry *Registry

	// Logger receives debug output about codec construction and decode failures.
	Logger *slog.Logger

	// MaxDepth bounds how deeply lists, maps and objects may nest.
	MaxDepth int
}

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 512

// Validate checks that the configuration is valid and applies defaults to
// optional fields.
func (c *Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfiguration, int(c.Mode))
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be positive, got %d", ErrInvalidConfiguration, c.MaxDepth)
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Registry == nil {
		c.Registry = DefaultRegistry()
	}
	if c.Logger == nil {
		c.Logger = c.Registry.logger
	}
	return nil
}

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
