package hprose

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileConfig is the serializable subset of Config. Registry and Logger are
// runtime objects and cannot come from a file.
type FileConfig struct {
	Mode     string `yaml:"mode"`
	Simple   bool   `yaml:"simple"`
	MaxDepth int    `yaml:"max_depth"`
}

// LoadConfigFile reads a YAML file such as:
//
//	mode: field
//	simple: false
//	max_depth: 128
//
// Missing keys keep their defaults.
func LoadConfigFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfiguration, path, err)
	}
	if _, err := fc.Options(); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// LoadConfigFromEnvironment reads HPROSE_MODE, HPROSE_SIMPLE and
// HPROSE_MAX_DEPTH. Unset variables keep their defaults.
//
// Example usage:
//
//	// export HPROSE_MODE=field
//	fc, err := hprose.LoadConfigFromEnvironment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts, _ := fc.Options()
//	codec, err := hprose.NewCodec(opts...)
func LoadConfigFromEnvironment() (FileConfig, error) {
	var fc FileConfig
	fc.Mode = os.Getenv(EnvMode)

	if v := os.Getenv(EnvSimple); v != "" {
		simple, err := strconv.ParseBool(v)
		if err != nil {
			return FileConfig{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfiguration, EnvSimple, v)
		}
		fc.Simple = simple
	}

	if v := os.Getenv(EnvMaxDepth); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return FileConfig{}, fmt.Errorf("%w: %s=%q", ErrInvalidConfiguration, EnvMaxDepth, v)
		}
		fc.MaxDepth = depth
	}

	if _, err := fc.Options(); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// Options turns the file settings into Options. A zero MaxDepth keeps the default.
func (fc FileConfig) Options() ([]Option, error) {
	mode, err := ParseMode(fc.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	opts := []Option{WithMode(mode), WithSimple(fc.Simple)}
	if fc.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidConfiguration, fc.MaxDepth)
	}
	if fc.MaxDepth > 0 {
		opts = append(opts, WithMaxDepth(fc.MaxDepth))
	}
	return opts, nil
}
