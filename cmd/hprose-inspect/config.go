package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/rpc"
)

// EnvFormat overrides the output format of encode.
const EnvFormat = "HPROSE_INSPECT_FORMAT"

// Config represents the configuration of the inspect command
type Config struct {
	Codec            hprose.FileConfig `yaml:"codec"`
	MaxRequestLength int               `yaml:"max_request_length"`
	Format           string            `yaml:"format"`
	LogLevel         string            `yaml:"log_level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRequestLength: rpc.DefaultMaxRequestLength,
		Format:           "raw",
		LogLevel:         "warn",
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables that are already set win. A missing file is ignored.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvironment overrides file settings with HPROSE_* variables that are
// set.
func (c *Config) ApplyEnvironment() error {
	env, err := hprose.LoadConfigFromEnvironment()
	if err != nil {
		return err
	}
	if _, ok := os.LookupEnv(hprose.EnvMode); ok {
		c.Codec.Mode = env.Mode
	}
	if _, ok := os.LookupEnv(hprose.EnvSimple); ok {
		c.Codec.Simple = env.Simple
	}
	if _, ok := os.LookupEnv(hprose.EnvMaxDepth); ok {
		c.Codec.MaxDepth = env.MaxDepth
	}
	if v, ok := os.LookupEnv(EnvFormat); ok {
		c.Format = v
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Codec.Options(); err != nil {
		return err
	}
	if c.MaxRequestLength <= 0 {
		return fmt.Errorf("max_request_length must be positive")
	}
	switch c.Format {
	case "raw", "hex":
	default:
		return fmt.Errorf("format must be one of: raw, hex")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// CodecOptions returns the hprose options for the configuration.
func (c *Config) CodecOptions(logger *slog.Logger) ([]hprose.Option, error) {
	opts, err := c.Codec.Options()
	if err != nil {
		return nil, err
	}
	return append(opts, hprose.WithLogger(logger)), nil
}

// RPCOptions returns the rpc options for the configuration.
func (c *Config) RPCOptions(logger *slog.Logger) ([]rpc.Option, error) {
	opts, err := c.CodecOptions(logger)
	if err != nil {
		return nil, err
	}
	return []rpc.Option{
		rpc.WithCodecOptions(opts...),
		rpc.WithLogger(logger),
		rpc.WithMaxRequestLength(c.MaxRequestLength),
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
