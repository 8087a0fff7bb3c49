// Package reliability retries operations that fail with transient errors.
package reliability

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy defines the interface for retry policies
type RetryPolicy interface {
	// NextDelay returns the delay before the next attempt, given the attempt number (0-indexed)
	NextDelay(attempt int) time.Duration
	// ShouldRetry determines if a retry should be attempted based on the error and attempt number
	ShouldRetry(err error, attempt int) bool
	// MaxAttempts returns the maximum number of attempts (including the initial attempt)
	MaxAttempts() int
}

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial attempt)
	MaxAttempts int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// Multiplier for exponential backoff
	Multiplier float64
	// Jitter adds randomness to delay calculations, as a fraction of the delay
	Jitter float64
	// ShouldRetry decides whether err is transient. Nil retries every error.
	ShouldRetry func(err error) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// ExponentialBackoffPolicy implements exponential backoff with jitter
type ExponentialBackoffPolicy struct {
	config RetryConfig
}

// NewExponentialBackoffPolicy creates a policy from config. Zero or invalid
// fields take their default values.
func NewExponentialBackoffPolicy(config RetryConfig) *ExponentialBackoffPolicy {
	defaults := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = max(defaults.MaxDelay, config.InitialDelay)
	}
	if config.Multiplier < 1 {
		config.Multiplier = defaults.Multiplier
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		config.Jitter = defaults.Jitter
	}
	return &ExponentialBackoffPolicy{config: config}
}

func (p *ExponentialBackoffPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	delay := float64(p.config.InitialDelay) * math.Pow(p.config.Multiplier, float64(attempt))
	delay = min(delay, float64(p.config.MaxDelay))
	if p.config.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.config.Jitter
	}
	return time.Duration(max(delay, 0))
}

func (p *ExponentialBackoffPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.config.MaxAttempts-1 {
		return false
	}
	return p.config.ShouldRetry == nil || p.config.ShouldRetry(err)
}

func (p *ExponentialBackoffPolicy) MaxAttempts() int {
	return p.config.MaxAttempts
}

// RetryExecutor handles retry logic for operations
type RetryExecutor struct {
	policy  RetryPolicy
	onRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryExecutor creates a new retry executor with the given policy
func NewRetryExecutor(policy RetryPolicy) *RetryExecutor {
	return &RetryExecutor{
		policy:  policy,
		onRetry: func(int, time.Duration, error) {},
	}
}

// SetOnRetryCallback sets a callback function to be called before each retry
func (r *RetryExecutor) SetOnRetryCallback(callback func(attempt int, delay time.Duration, err error)) {
	if callback == nil {
		callback = func(int, time.Duration, error) {}
	}
	r.onRetry = callback
}

// Execute runs operation until it succeeds, the policy gives up or ctx is
// done. The last operation error is returned.
func (r *RetryExecutor) Execute(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = operation(ctx)
		if !r.policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}

		delay := r.policy.NextDelay(attempt)
		r.onRetry(attempt+1, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
