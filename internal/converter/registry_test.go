package converter

import (
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float32

func convert[T any](t *testing.T, r *Registry, v any) (T, error) {
	t.Helper()
	var zero T
	out, err := r.Convert(reflect.ValueOf(v), reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

func TestKindOfType(t *testing.T) {
	tests := []struct {
		value any
		want  Kind
	}{
		{true, Bool},
		{int8(1), Int8},
		{int(1), Int64},
		{uint16(1), Uint16},
		{float32(1), Float32},
		{celsius(1), Float32},
		{"s", String},
		{[]byte("b"), Bytes},
		{time.Now(), Time},
		{big.NewInt(1), BigInt},
		{*big.NewInt(1), BigInt},
		{uuid.New(), GUID},
		{[]int{1}, Invalid},
		{struct{}{}, Invalid},
		{nil, Invalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.value), "%T", tt.value)
	}
}

func TestNumericNarrowing(t *testing.T) {
	r := New()

	i8, err := convert[int8](t, r, int64(-128))
	require.NoError(t, err)
	assert.Equal(t, int8(-128), i8)

	_, err = convert[int8](t, r, int64(128))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = convert[uint32](t, r, int64(-1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = convert[int64](t, r, uint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrOverflow)

	i, err := convert[int](t, r, 3.99)
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = convert[int32](t, r, 1e12)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = convert[int](t, r, math.NaN())
	assert.ErrorIs(t, err, ErrOverflow)

	u, err := convert[uint8](t, r, -0.5)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), u)
}

func TestFloatTargets(t *testing.T) {
	r := New()

	f, err := convert[float32](t, r, int64(3))
	require.NoError(t, err)
	assert.Equal(t, float32(3), f)

	c, err := convert[celsius](t, r, 21.5)
	require.NoError(t, err)
	assert.Equal(t, celsius(21.5), c)

	f64, err := convert[float64](t, r, big.NewInt(1<<40))
	require.NoError(t, err)
	assert.Equal(t, float64(1<<40), f64)

	moment := time.Unix(10, 500000000)
	secs, err := convert[float64](t, r, moment)
	require.NoError(t, err)
	assert.InDelta(t, 10.5, secs, 1e-9)

	unix, err := convert[int64](t, r, moment)
	require.NoError(t, err)
	assert.Equal(t, int64(10), unix)
}

func TestStringConversions(t *testing.T) {
	r := New()

	n, err := convert[int](t, r, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = convert[int](t, r, "forty-two")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	s, err := convert[string](t, r, 1.5)
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)

	s, err = convert[string](t, r, float32(0.1))
	require.NoError(t, err)
	assert.Equal(t, "0.1", s)

	b, err := convert[bool](t, r, "true")
	require.NoError(t, err)
	assert.True(t, b)

	moment := time.Date(2020, 5, 6, 7, 8, 9, 10, time.UTC)
	text, err := convert[string](t, r, moment)
	require.NoError(t, err)
	back, err := convert[time.Time](t, r, text)
	require.NoError(t, err)
	assert.True(t, moment.Equal(back))
}

func TestBigIntConversions(t *testing.T) {
	r := New()

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	_, err := convert[int64](t, r, huge)
	assert.ErrorIs(t, err, ErrOverflow)

	b, err := convert[*big.Int](t, r, "123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, 0, huge.Cmp(b))

	v, err := convert[big.Int](t, r, int64(-7))
	require.NoError(t, err)
	assert.Equal(t, "-7", v.String())

	n, err := convert[uint64](t, r, new(big.Int).SetUint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)
}

func TestGUIDConversions(t *testing.T) {
	r := New()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	got, err := convert[uuid.UUID](t, r, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	raw, err := convert[[]byte](t, r, id)
	require.NoError(t, err)
	assert.Equal(t, id[:], raw)

	_, err = convert[uuid.UUID](t, r, "not-a-guid")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestUnregisteredPairIsMismatch(t *testing.T) {
	r := New()

	_, err := convert[int](t, r, []byte("12"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = convert[uuid.UUID](t, r, 3)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = convert[[]int](t, r, 3)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, ok := r.Lookup(Time, GUID)
	assert.False(t, ok)
}
