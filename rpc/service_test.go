package rpc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/internal/monitoring"
)

type point struct {
	X int
	Y int
}

type ctxKey struct{}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(opts...)
	require.NoError(t, err)
	require.NoError(t, s.Register("add", func(a, b int) int { return a + b }))
	require.NoError(t, s.Register("greet", func(ctx context.Context, name string) (string, error) {
		prefix, _ := ctx.Value(ctxKey{}).(string)
		return prefix + name, nil
	}))
	require.NoError(t, s.Register("fail", func() error { return errors.New("nope") }))
	require.NoError(t, s.Register("panic", func() int { panic("bad state") }))
	require.NoError(t, s.Register("noop", func() {}))
	require.NoError(t, s.Register("norm", func(p point) int { return p.X*p.X + p.Y*p.Y }))
	return s
}

// call runs one request through client and service codecs.
func call(t *testing.T, s *Service, ctx context.Context, name string, args []any, result any) error {
	t.Helper()
	req, err := EncodeRequest(name, args, nil)
	require.NoError(t, err)
	resp, err := s.Handle(ctx, req)
	require.NoError(t, err)
	return DecodeResponse(resp, result, nil)
}

func TestServiceHandle(t *testing.T) {
	s := newTestService(t)

	t.Run("wire", func(t *testing.T) {
		resp, err := s.Handle(context.Background(), []byte(`Cs3"add"a2{23}z`))
		require.NoError(t, err)
		assert.Equal(t, "R5z", string(resp))
	})

	t.Run("names are case-insensitive", func(t *testing.T) {
		var got int
		require.NoError(t, call(t, s, context.Background(), "ADD", []any{2, 3}, &got))
		assert.Equal(t, 5, got)
	})

	t.Run("context is passed", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "hello ")
		var got string
		require.NoError(t, call(t, s, ctx, "greet", []any{"Ann"}, &got))
		assert.Equal(t, "hello Ann", got)
	})

	t.Run("record argument", func(t *testing.T) {
		var got int
		require.NoError(t, call(t, s, context.Background(), "norm", []any{point{3, 4}}, &got))
		assert.Equal(t, 25, got)
	})

	t.Run("missing arguments are zero", func(t *testing.T) {
		var got int
		require.NoError(t, call(t, s, context.Background(), "add", []any{4}, &got))
		assert.Equal(t, 4, got)
	})

	t.Run("extra arguments are ignored", func(t *testing.T) {
		var got int
		require.NoError(t, call(t, s, context.Background(), "add", []any{1, 2, 3}, &got))
		assert.Equal(t, 3, got)
	})

	t.Run("void", func(t *testing.T) {
		resp, err := s.Handle(context.Background(), []byte(`Cs4"noop"z`))
		require.NoError(t, err)
		assert.Equal(t, "z", string(resp))
	})

	t.Run("class definitions before an argument", func(t *testing.T) {
		req := `Cs4"noop"a1{` + strings.Repeat(`c1"A"{}`, 100_000) + `n}z`
		resp, err := s.Handle(context.Background(), []byte(req))
		require.NoError(t, err)
		assert.Equal(t, "z", string(resp))
	})

	t.Run("method list", func(t *testing.T) {
		resp, err := s.Handle(context.Background(), []byte("z"))
		require.NoError(t, err)
		var names []string
		require.NoError(t, DecodeResponse(resp, &names, nil))
		assert.Equal(t, []string{"add", "fail", "greet", "noop", "norm", "panic"}, names)
	})
}

func TestServiceHandleErrors(t *testing.T) {
	s := newTestService(t)
	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"application error", `Cs4"fail"z`, "nope"},
		{"unknown method", `Cs7"missing"z`, "unknown method: missing"},
		{"panic", `Cs5"panic"z`, "method panicked: panic: bad state"},
		{"malformed request", `Cs3"add"a2{23}`, "unexpected end of input"},
		{"argument type mismatch", `Cs3"add"a2{a{}1}z`, "type mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Handle(context.Background(), []byte(tt.request))
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(string(resp), "E"), "response %q", resp)

			err = DecodeResponse(resp, nil, nil)
			require.True(t, IsRemoteError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServiceRequestTooLarge(t *testing.T) {
	s := newTestService(t, WithMaxRequestLength(8))
	_, err := s.Handle(context.Background(), []byte(`Cs3"add"a2{23}z`))
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestServiceRegisterErrors(t *testing.T) {
	s := newTestService(t)
	tests := []struct {
		name   string
		method string
		fn     any
	}{
		{"empty name", "", func() {}},
		{"nil function", "nilfn", (func())(nil)},
		{"not a function", "answer", 42},
		{"variadic", "sum", func(xs ...int) int { return len(xs) }},
		{"too many results", "triple", func() (int, int, error) { return 0, 0, nil }},
		{"second result not error", "pair", func() (int, int) { return 0, 0 }},
		{"duplicate", "Add", func() {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(tt.method, tt.fn)
			assert.ErrorIs(t, err, hprose.ErrInvalidConfiguration)
		})
	}
	assert.Len(t, s.Methods(), 6)
}

func TestServiceReportsFrames(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	s := newTestService(t, WithHook(NewMetricsHook(collector)))

	_, err := s.Handle(context.Background(), []byte(`Cs3"add"a2{23}z`))
	require.NoError(t, err)
	_, err = s.Handle(context.Background(), []byte("Q"))
	require.NoError(t, err)

	handle := map[string]string{"operation": monitoring.OpHandle}
	decode := map[string]string{"operation": monitoring.OpDecodeRequest}
	assert.Equal(t, int64(2), collector.GetCounter("hprose.frames.started", handle))
	assert.Equal(t, int64(2), collector.GetCounter("hprose.frames.succeeded", handle))
	assert.Equal(t, int64(1), collector.GetCounter("hprose.frames.succeeded", decode))
	assert.Equal(t, int64(1), collector.GetCounter("hprose.frames.failed", decode))
	assert.Equal(t, []float64{15, 1}, collector.GetValues("hprose.frames.bytes", handle))
}
