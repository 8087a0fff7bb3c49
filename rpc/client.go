package rpc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/monitoring"
	"github.com/hengadev/hprose/internal/tags"
)

// ClientContext carries headers for one call. Response headers are merged in
// by Decode.
type ClientContext struct {
	RequestHeaders  map[string]any
	ResponseHeaders map[string]any
}

func NewClientContext() *ClientContext {
	return &ClientContext{
		RequestHeaders:  make(map[string]any),
		ResponseHeaders: make(map[string]any),
	}
}

// ClientCodec encodes calls and decodes their responses.
type ClientCodec struct {
	codec  *hprose.Codec
	hook   Hook
	logger *slog.Logger
}

func NewClientCodec(opts ...Option) (*ClientCodec, error) {
	cfg, codec, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ClientCodec{codec: codec, hook: cfg.hook, logger: cfg.logger}, nil
}

// Encode builds the request frame for a call to name. A nil ctx sends no
// headers.
func (c *ClientCodec) Encode(name string, args []any, ctx *ClientContext) ([]byte, error) {
	frame, done := monitoring.Observe(context.Background(), c.hook, Frame{
		Operation: monitoring.OpEncodeRequest,
		Method:    name,
	})
	data, err := c.encode(name, args, ctx)
	frame.Size = len(data)
	done(err)
	return data, err
}

func (c *ClientCodec) encode(name string, args []any, ctx *ClientContext) ([]byte, error) {
	var buf bytes.Buffer
	w := c.codec.NewWriter(&buf)
	if ctx != nil && len(ctx.RequestHeaders) > 0 {
		buf.WriteByte(tags.Header)
		if err := w.Serialize(ctx.RequestHeaders); err != nil {
			return nil, fmt.Errorf("encode headers: %w", err)
		}
		w.Reset()
	}
	buf.WriteByte(tags.Call)
	if err := w.Serialize(name); err != nil {
		return nil, fmt.Errorf("encode method name: %w", err)
	}
	if len(args) > 0 {
		w.Reset()
		if err := w.Serialize(args); err != nil {
			return nil, fmt.Errorf("encode arguments of %s: %w", name, err)
		}
	}
	buf.WriteByte(tags.End)
	return buf.Bytes(), nil
}

// Decode reads a response frame. A result is decoded into result, which must
// be a non-nil pointer or nil to discard it. An error frame is returned as a
// *RemoteError. A bare end tag leaves result untouched.
func (c *ClientCodec) Decode(data []byte, result any, ctx *ClientContext) error {
	_, done := monitoring.Observe(context.Background(), c.hook, Frame{
		Operation: monitoring.OpDecodeResponse,
		Size:      len(data),
	})
	err := c.decode(data, result, ctx)
	if err != nil && !IsRemoteError(err) {
		c.logger.Debug("response rejected", "size", len(data), "error", err)
	}
	done(err)
	return err
}

func (c *ClientCodec) decode(data []byte, result any, ctx *ClientContext) error {
	r := c.codec.NewReader(data)
	tag, err := r.ReadTag()
	if err != nil {
		return err
	}
	if tag == tags.Header {
		var headers map[string]any
		if err := r.Deserialize(&headers); err != nil {
			return fmt.Errorf("response headers: %w", err)
		}
		if ctx != nil {
			if ctx.ResponseHeaders == nil {
				ctx.ResponseHeaders = make(map[string]any, len(headers))
			}
			maps.Copy(ctx.ResponseHeaders, headers)
		}
		r.Reset()
		if tag, err = r.ReadTag(); err != nil {
			return err
		}
	}

	switch tag {
	case tags.Result:
		if result == nil {
			var discard any
			return r.Deserialize(&discard)
		}
		return r.Deserialize(result)
	case tags.Error:
		var message string
		if err := r.Deserialize(&message); err != nil {
			return fmt.Errorf("error message: %w", err)
		}
		return &RemoteError{Message: message}
	case tags.End:
		return nil
	default:
		return hprose.NewUnexpectedTagError(tag, "a result, an error or the end tag")
	}
}

var defaultClient = func() *ClientCodec {
	c, _ := NewClientCodec()
	return c
}()

// EncodeRequest encodes a call with a ClientCodec built from opts.
func EncodeRequest(name string, args []any, ctx *ClientContext, opts ...Option) ([]byte, error) {
	c, err := clientFor(opts)
	if err != nil {
		return nil, err
	}
	return c.Encode(name, args, ctx)
}

// DecodeResponse decodes a response with a ClientCodec built from opts.
func DecodeResponse(data []byte, result any, ctx *ClientContext, opts ...Option) error {
	c, err := clientFor(opts)
	if err != nil {
		return err
	}
	return c.Decode(data, result, ctx)
}

func clientFor(opts []Option) (*ClientCodec, error) {
	if len(opts) == 0 {
		return defaultClient, nil
	}
	return NewClientCodec(opts...)
}
