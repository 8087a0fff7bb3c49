package rpc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/monitoring"
	"github.com/hengadev/hprose/internal/tags"
)

// Request is a decoded call. Name is empty for a bare end-tag request, which
// asks the service for its method list.
type Request struct {
	Name    string
	Args    []any
	Headers map[string]any

	values []reflect.Value
}

// Resolver returns the parameter types of a method. Unknown methods return
// false and their arguments are decoded untyped.
type Resolver func(name string) ([]reflect.Type, bool)

type void struct{}

// Void makes ServiceCodec.Encode write a response with no result.
var Void any = void{}

func isVoid(v any) bool {
	_, ok := v.(void)
	return ok
}

// ServiceCodec decodes requests and encodes responses.
type ServiceCodec struct {
	codec            *hprose.Codec
	hook             Hook
	logger           *slog.Logger
	maxRequestLength int
}

func NewServiceCodec(opts ...Option) (*ServiceCodec, error) {
	cfg, codec, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ServiceCodec{
		codec:            codec,
		hook:             cfg.hook,
		logger:           cfg.logger,
		maxRequestLength: cfg.maxRequestLength,
	}, nil
}

// Decode parses a request frame, decoding each argument into the type
// resolve reports for the method. A nil resolve decodes everything untyped.
func (c *ServiceCodec) Decode(data []byte, resolve Resolver) (*Request, error) {
	frame, done := monitoring.Observe(context.Background(), c.hook, Frame{
		Operation: monitoring.OpDecodeRequest,
		Size:      len(data),
	})
	req, err := c.decode(data, resolve)
	if req != nil {
		frame.Method = req.Name
	}
	if err != nil {
		c.logger.Warn("request rejected", "size", len(data), "error", err)
	}
	done(err)
	return req, err
}

func (c *ServiceCodec) decode(data []byte, resolve Resolver) (*Request, error) {
	if len(data) > c.maxRequestLength {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrRequestTooLarge, len(data), c.maxRequestLength)
	}
	r := c.codec.NewReader(data)
	req := &Request{}
	tag, err := r.ReadTag()
	if err != nil {
		return nil, err
	}
	if tag == tags.Header {
		if err := r.Deserialize(&req.Headers); err != nil {
			return nil, fmt.Errorf("request headers: %w", err)
		}
		r.Reset()
		if tag, err = r.ReadTag(); err != nil {
			return nil, err
		}
	}
	switch tag {
	case tags.End:
		return req, nil
	case tags.Call:
	default:
		return nil, hprose.NewUnexpectedTagError(tag, "a call or the end tag")
	}

	if err := r.Deserialize(&req.Name); err != nil {
		return nil, fmt.Errorf("method name: %w", err)
	}
	var types []reflect.Type
	if resolve != nil {
		types, _ = resolve(req.Name)
	}

	tag, err = r.PeekTag()
	if err != nil {
		return nil, err
	}
	if tag == tags.List {
		r.Reset()
		if req.values, err = r.ReadArguments(types); err != nil {
			return nil, fmt.Errorf("arguments of %s: %w", req.Name, err)
		}
	} else {
		for _, t := range types {
			req.values = append(req.values, reflect.New(t).Elem())
		}
	}
	if tag, err = r.ReadTag(); err != nil {
		return nil, err
	}
	if tag != tags.End {
		return nil, hprose.NewUnexpectedTagError(tag, "the end tag")
	}

	req.Args = make([]any, len(req.values))
	for i, v := range req.values {
		req.Args[i] = v.Interface()
	}
	return req, nil
}

// Encode builds a response frame. A non-nil err produces an error frame with
// its message, Void produces a frame with no result.
func (c *ServiceCodec) Encode(result any, err error, headers map[string]any) ([]byte, error) {
	frame, done := monitoring.Observe(context.Background(), c.hook, Frame{
		Operation: monitoring.OpEncodeResponse,
	})
	data, encErr := c.encode(result, err, headers)
	frame.Size = len(data)
	done(encErr)
	return data, encErr
}

func (c *ServiceCodec) encode(result any, failure error, headers map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	w := c.codec.NewWriter(&buf)
	if len(headers) > 0 {
		buf.WriteByte(tags.Header)
		if err := w.Serialize(headers); err != nil {
			return nil, fmt.Errorf("encode headers: %w", err)
		}
		w.Reset()
	}
	switch {
	case failure != nil:
		buf.WriteByte(tags.Error)
		if err := w.Serialize(failure.Error()); err != nil {
			return nil, err
		}
	case isVoid(result):
	default:
		buf.WriteByte(tags.Result)
		if err := w.Serialize(result); err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
	}
	buf.WriteByte(tags.End)
	return buf.Bytes(), nil
}
