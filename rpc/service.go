package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/monitoring"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

type method struct {
	name       string
	fn         reflect.Value
	params     []reflect.Type
	hasContext bool
	hasResult  bool
	hasError   bool
}

// Service dispatches requests to registered Go functions. It is safe for
// concurrent use.
type Service struct {
	codec  *ServiceCodec
	hook   Hook
	logger *slog.Logger

	mu      sync.RWMutex
	methods map[string]*method
}

func NewService(opts ...Option) (*Service, error) {
	codec, err := NewServiceCodec(opts...)
	if err != nil {
		return nil, err
	}
	return &Service{
		codec:   codec,
		hook:    codec.hook,
		logger:  codec.logger,
		methods: make(map[string]*method),
	}, nil
}

// Register publishes fn under name. Names are matched case-insensitively.
//
// fn may take a leading context.Context and must return nothing, a value,
// an error, or a value and an error. Variadic functions are rejected.
func (s *Service) Register(name string, fn any) error {
	if name == "" {
		return fmt.Errorf("%w: method name cannot be empty", hprose.ErrInvalidConfiguration)
	}
	m, err := newMethod(name, fn)
	if err != nil {
		return err
	}
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.methods[key]; ok {
		return fmt.Errorf("%w: method %s already registered as %s", hprose.ErrInvalidConfiguration, name, existing.name)
	}
	s.methods[key] = m
	s.logger.Debug("registered method", "method", name, "params", len(m.params))
	return nil
}

func newMethod(name string, fn any) (*method, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: method %s must be a function, got %T", hprose.ErrInvalidConfiguration, name, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: method %s cannot be variadic", hprose.ErrInvalidConfiguration, name)
	}

	m := &method{name: name, fn: v}
	for i := range t.NumIn() {
		in := t.In(i)
		if i == 0 && in == contextType {
			m.hasContext = true
			continue
		}
		m.params = append(m.params, in)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			m.hasError = true
		} else {
			m.hasResult = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result of method %s must be error, got %s", hprose.ErrInvalidConfiguration, name, t.Out(1))
		}
		m.hasResult, m.hasError = true, true
	default:
		return nil, fmt.Errorf("%w: method %s returns %d values", hprose.ErrInvalidConfiguration, name, t.NumOut())
	}
	return m, nil
}

// Methods returns the registered names in sorted order.
func (s *Service) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.methods))
	for _, m := range s.methods {
		names = append(names, m.name)
	}
	slices.Sort(names)
	return names
}

func (s *Service) lookup(name string) (*method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.methods[strings.ToLower(name)]
	return m, ok
}

func (s *Service) resolve(name string) ([]reflect.Type, bool) {
	m, ok := s.lookup(name)
	if !ok {
		return nil, false
	}
	return m.params, true
}

// Handle decodes a request, invokes the method and returns the encoded
// response. Unknown methods, malformed frames and application errors are
// answered in-band with an error frame. Only an oversized request or a
// response that cannot be encoded returns an error.
func (s *Service) Handle(ctx context.Context, request []byte) ([]byte, error) {
	frame, done := monitoring.Observe(ctx, s.hook, Frame{
		Operation: monitoring.OpHandle,
		Size:      len(request),
	})
	response, err := s.handle(ctx, request, frame)
	done(err)
	return response, err
}

func (s *Service) handle(ctx context.Context, request []byte, frame *Frame) ([]byte, error) {
	req, err := s.codec.Decode(request, s.resolve)
	if errors.Is(err, ErrRequestTooLarge) {
		return nil, err
	}
	if err != nil {
		return s.codec.Encode(nil, err, nil)
	}
	frame.Method = req.Name

	if req.Name == "" {
		return s.codec.Encode(s.Methods(), nil, nil)
	}
	m, ok := s.lookup(req.Name)
	if !ok {
		return s.codec.Encode(nil, fmt.Errorf("%w: %s", ErrUnknownMethod, req.Name), nil)
	}

	result, callErr := m.call(ctx, req.values)
	if callErr != nil {
		s.logger.DebugContext(ctx, "method failed", "method", m.name, "error", callErr)
	}
	response, err := s.codec.Encode(result, callErr, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "response rejected", "method", m.name, "error", err)
		return s.codec.Encode(nil, err, nil)
	}
	return response, nil
}

func (m *method) call(ctx context.Context, values []reflect.Value) (result any, err error) {
	args := make([]reflect.Value, 0, len(m.params)+1)
	if m.hasContext {
		args = append(args, reflect.ValueOf(&ctx).Elem())
	}
	args = append(args, values[:min(len(values), len(m.params))]...)
	for _, t := range m.params[min(len(values), len(m.params)):] {
		args = append(args, reflect.New(t).Elem())
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("%w: %s: %v", ErrMethodPanicked, m.name, p)
		}
	}()
	out := m.fn.Call(args)

	result = Void
	if m.hasResult {
		result = out[0].Interface()
	}
	if m.hasError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return nil, e
		}
	}
	return result, nil
}
