package grpccodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"

	"github.com/hengadev/hprose"
)

type greeting struct {
	Name  string
	Times int
}

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)
	assert.Equal(t, "hprose", c.Name())
}

func TestCodecRoundTrip(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	data, err := c.Marshal(greeting{Name: "Ann", Times: 2})
	require.NoError(t, err)
	assert.Equal(t, `c8"greeting"2{s4"name"s5"times"}o0{s3"Ann"2}`, string(data))

	var out greeting
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, greeting{Name: "Ann", Times: 2}, out)
}

func TestCodecErrors(t *testing.T) {
	c, err := New(hprose.WithSimple(true))
	require.NoError(t, err)

	_, err = c.Marshal(make(chan int))
	assert.ErrorIs(t, err, hprose.ErrUnsupportedType)

	var out greeting
	err = c.Unmarshal([]byte("o0{"), &out)
	assert.True(t, hprose.IsProtocolError(err))

	err = c.Unmarshal([]byte("1"), out)
	assert.ErrorIs(t, err, hprose.ErrInvalidTarget)

	_, err = New(hprose.WithMaxDepth(0))
	assert.ErrorIs(t, err, hprose.ErrInvalidConfiguration)
}

func TestOptions(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.NotNil(t, CallOption(c))
	assert.NotNil(t, ServerOption(c))
}
