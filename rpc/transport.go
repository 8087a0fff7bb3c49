package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/reliability"
)

// Transport carries one request frame to a service and returns its response
// frame. A *Service is an in-process Transport.
type Transport interface {
	Handle(ctx context.Context, request []byte) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, request []byte) ([]byte, error)

func (f TransportFunc) Handle(ctx context.Context, request []byte) ([]byte, error) {
	return f(ctx, request)
}

// Client invokes remote methods over a Transport.
type Client struct {
	codec     *ClientCodec
	transport Transport
	retry     *reliability.RetryExecutor
	logger    *slog.Logger
}

func NewClient(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", hprose.ErrInvalidConfiguration)
	}
	cfg, codec, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	retry := cfg.retry
	retry.ShouldRetry = isTransportError
	executor := reliability.NewRetryExecutor(reliability.NewExponentialBackoffPolicy(retry))
	executor.SetOnRetryCallback(func(attempt int, delay time.Duration, err error) {
		cfg.logger.Debug("retrying call", "attempt", attempt, "delay", delay, "error", err)
	})
	return &Client{
		codec:     &ClientCodec{codec: codec, hook: cfg.hook, logger: cfg.logger},
		transport: transport,
		retry:     executor,
		logger:    cfg.logger,
	}, nil
}

// Invoke calls name with args and decodes the result into result, which may
// be nil to discard it.
func (c *Client) Invoke(ctx context.Context, name string, args []any, result any) error {
	return c.InvokeContext(ctx, name, args, result, nil)
}

// InvokeContext is Invoke with request and response headers carried by cc.
func (c *Client) InvokeContext(ctx context.Context, name string, args []any, result any, cc *ClientContext) error {
	request, err := c.codec.Encode(name, args, cc)
	if err != nil {
		return err
	}

	var response []byte
	err = c.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		response, err = c.transport.Handle(ctx, request)
		return err
	})
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	return c.codec.Decode(response, result, cc)
}

// isTransportError reports whether a round trip may succeed when repeated.
// Oversized requests and cancelled contexts never will.
func isTransportError(err error) bool {
	return !errors.Is(err, ErrRequestTooLarge) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
