package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/hprose"
)

func TestClientOverService(t *testing.T) {
	s := newTestService(t)
	client, err := NewClient(s)
	require.NoError(t, err)

	var sum int
	require.NoError(t, client.Invoke(context.Background(), "add", []any{2, 3}, &sum))
	assert.Equal(t, 5, sum)

	err = client.Invoke(context.Background(), "fail", nil, nil)
	assert.True(t, IsRemoteError(err))
	assert.EqualError(t, err, "nope")
}

func TestClientHeaders(t *testing.T) {
	var seen []byte
	transport := TransportFunc(func(_ context.Context, request []byte) ([]byte, error) {
		seen = request
		return []byte(`Hm1{s5"trace"i42;}Rs2"ok"z`), nil
	})
	client, err := NewClient(transport)
	require.NoError(t, err)

	cc := NewClientContext()
	cc.RequestHeaders["id"] = 1
	var got string
	require.NoError(t, client.InvokeContext(context.Background(), "ping", nil, &got, cc))
	assert.Equal(t, `Hm1{s2"id"1}Cs4"ping"z`, string(seen))
	assert.Equal(t, "ok", got)
	assert.Equal(t, 42, cc.ResponseHeaders["trace"])
}

func TestClientRetriesTransportErrors(t *testing.T) {
	errDown := errors.New("connection reset")
	s := newTestService(t)

	tests := []struct {
		name      string
		failures  int
		failWith  error
		attempts  int
		wantErr   error
		wantCalls int
	}{
		{"recovers", 2, errDown, 3, nil, 3},
		{"gives up", 5, errDown, 3, errDown, 3},
		{"no retry by default", 1, errDown, 0, errDown, 1},
		{"request too large is final", 5, ErrRequestTooLarge, 3, ErrRequestTooLarge, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			transport := TransportFunc(func(ctx context.Context, request []byte) ([]byte, error) {
				calls++
				if calls <= tt.failures {
					return nil, tt.failWith
				}
				return s.Handle(ctx, request)
			})
			var opts []Option
			if tt.attempts > 0 {
				opts = append(opts, WithRetry(tt.attempts, time.Millisecond))
			}
			client, err := NewClient(transport, opts...)
			require.NoError(t, err)

			var sum int
			err = client.Invoke(context.Background(), "add", []any{1, 1}, &sum)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, IsRemoteError(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, sum)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestClientErrorFramesAreNotRetried(t *testing.T) {
	calls := 0
	transport := TransportFunc(func(context.Context, []byte) ([]byte, error) {
		calls++
		return []byte(`Es4"boom"z`), nil
	})
	client, err := NewClient(transport, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	err = client.Invoke(context.Background(), "add", nil, nil)
	assert.True(t, IsRemoteError(err))
	assert.Equal(t, 1, calls)
}

func TestNewClientErrors(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, hprose.ErrInvalidConfiguration)

	_, err = NewClient(TransportFunc(nil), WithRetry(0, time.Second))
	assert.ErrorIs(t, err, hprose.ErrInvalidConfiguration)

	_, err = NewClient(TransportFunc(nil), WithRetry(2, -time.Second))
	assert.ErrorIs(t, err, hprose.ErrInvalidConfiguration)
}
