package rpc

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/reliability"
)

// DefaultMaxRequestLength is the largest request a Service accepts by default.
const DefaultMaxRequestLength = math.MaxInt32

type config struct {
	codec            []hprose.Option
	hook             Hook
	logger           *slog.Logger
	maxRequestLength int
	retry            reliability.RetryConfig
}

// Option configures a ClientCodec, ServiceCodec or Service.
type Option func(*config) error

// WithCodecOptions sets the options of the underlying hprose codec.
func WithCodecOptions(opts ...hprose.Option) Option {
	return func(c *config) error {
		c.codec = append(c.codec, opts...)
		return nil
	}
}

// WithHook reports every frame to hook.
func WithHook(hook Hook) Option {
	return func(c *config) error {
		if hook == nil {
			return fmt.Errorf("%w: hook cannot be nil", hprose.ErrInvalidConfiguration)
		}
		c.hook = hook
		return nil
	}
}

// WithLogger sets the logger used for rejected frames.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", hprose.ErrInvalidConfiguration)
		}
		c.logger = logger
		return nil
	}
}

// WithMaxRequestLength bounds the size of requests a service decodes.
func WithMaxRequestLength(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max request length must be positive, got %d", hprose.ErrInvalidConfiguration, n)
		}
		c.maxRequestLength = n
		return nil
	}
}

// WithRetry makes a Client retry transport failures up to attempts times in
// total, backing off exponentially from delay. Error frames are never retried.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return fmt.Errorf("%w: retry attempts must be positive, got %d", hprose.ErrInvalidConfiguration, attempts)
		}
		if delay < 0 {
			return fmt.Errorf("%w: retry delay cannot be negative", hprose.ErrInvalidConfiguration)
		}
		c.retry.MaxAttempts = attempts
		c.retry.InitialDelay = delay
		return nil
	}
}

func newConfig(opts []Option) (*config, *hprose.Codec, error) {
	cfg := &config{
		hook:             NoOpHook{},
		logger:           slog.New(slog.DiscardHandler),
		maxRequestLength: DefaultMaxRequestLength,
		retry:            reliability.RetryConfig{MaxAttempts: 1},
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, nil, err
		}
	}
	codec, err := hprose.NewCodec(cfg.codec...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, codec, nil
}
