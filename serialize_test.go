package hprose

import (
	"bytes"
	"iter"
	"maps"
	"math"
	"math/big"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name string
	Age  int
}

type node struct {
	Name string
	Next *node
}

type point struct {
	X int
	Y int
}

func serialize(t *testing.T, v any, opts ...Option) string {
	t.Helper()
	data, err := Serialize(v, opts...)
	require.NoError(t, err)
	return string(data)
}

func TestSerializeScalars(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "n"},
		{"true", true, "t"},
		{"false", false, "f"},
		{"digit", 7, "7"},
		{"int", 123, "i123;"},
		{"negative", -1, "i-1;"},
		{"int8", int8(-5), "i-5;"},
		{"long", int64(1 << 40), "l1099511627776;"},
		{"uint", uint(9), "9"},
		{"uint64 max", uint64(math.MaxUint64), "l18446744073709551615;"},
		{"float64", 1.5, "d1.5;"},
		{"float32", float32(0.1), "d0.1;"},
		{"nan", math.NaN(), "N"},
		{"infinity", math.Inf(-1), "I-"},
		{"empty string", "", "e"},
		{"char", "a", "ua"},
		{"wide char", "é", "ué"},
		{"string", "hello", `s5"hello"`},
		{"surrogate pair", "a😀", "s3\"a😀\""},
		{"bytes", []byte("xyz"), `b3"xyz"`},
		{"empty bytes", []byte{}, `b""`},
		{"nil bytes", []byte(nil), "n"},
		{"byte array", [2]byte{'o', 'k'}, `b2"ok"`},
		{"guid", id, "g{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"},
		{"date", time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC), "D20180401Z"},
		{"big int", big.NewInt(5), "l5;"},
		{"big int value", *big.NewInt(-42), "l-42;"},
		{"nil big int", (*big.Int)(nil), "n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serialize(t, tt.value))
		})
	}
}

func TestSerializeContainers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"list", []int{1, 2, 3}, "a3{123}"},
		{"empty list", []int{}, "a{}"},
		{"nil list", []int(nil), "n"},
		{"array", [3]int{4, 5, 6}, "a3{456}"},
		{"nested", [][]int{{1}, {}}, "a2{a1{1}a{}}"},
		{"mixed list", []any{1, "x", nil, true}, "a4{1uxnt}"},
		{"map", map[string]int{"a": 1}, "m1{ua1}"},
		{"empty map", map[string]int{}, "m{}"},
		{"nil map", map[string]int(nil), "n"},
		{"anonymous struct", struct{ X int }{5}, "m1{ux5}"},
		{"pointer to int", ptr(5), "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serialize(t, tt.value))
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestSerializeRecord(t *testing.T) {
	got := serialize(t, user{Name: "Ann", Age: 30})
	assert.Equal(t, `c4"user"2{s4"name"s3"age"}o0{s3"Ann"i30;}`, got)

	// The class is written once per stream.
	got = serialize(t, []user{{"Ann", 30}, {"Bob", 4}})
	assert.Equal(t, `a2{c4"user"2{s4"name"s3"age"}o0{s3"Ann"i30;}o0{s3"Bob"4}}`, got)
}

func TestSerializeRegisteredClass(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(point{}, "Point"))

	got := serialize(t, point{1, 2}, WithRegistry(reg))
	assert.Equal(t, `c5"Point"2{s1"x"s1"y"}o0{12}`, got)
}

func TestSerializeSequences(t *testing.T) {
	t.Run("typed sequence matches slice", func(t *testing.T) {
		values := []int{1, 2, 3}
		assert.Equal(t, serialize(t, values), serialize(t, slices.Values(values)))
	})

	t.Run("pair sequence is a map", func(t *testing.T) {
		seq := maps.All(map[string]int{"a": 1})
		assert.Equal(t, "m1{ua1}", serialize(t, seq))
	})

	t.Run("mixed pairs", func(t *testing.T) {
		var seq iter.Seq[any] = func(yield func(any) bool) {
			_ = yield(Pair{Key: "a", Value: 1}) && yield(Pair{Key: "b", Value: 2})
		}
		assert.Equal(t, "m2{ua1ub2}", serialize(t, seq))
	})

	t.Run("mixed values", func(t *testing.T) {
		seq := func(yield func(any) bool) {
			_ = yield(Pair{Key: "a", Value: 1}) && yield("x")
		}
		assert.Equal(t, `a2{c4"Pair"2{s3"key"s5"value"}o0{ua1}ux}`, serialize(t, seq))
	})

	t.Run("empty mixed is a list", func(t *testing.T) {
		seq := func(yield func(any) bool) {}
		assert.Equal(t, "a{}", serialize(t, seq))
	})

	t.Run("unstable sequence", func(t *testing.T) {
		calls := 0
		seq := func(yield func(int) bool) {
			calls++
			for i := range calls {
				if !yield(i) {
					return
				}
			}
		}
		_, err := Serialize(iter.Seq[int](seq))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestSerializeUnsupported(t *testing.T) {
	for _, v := range []any{make(chan int), func() {}, complex(1, 2)} {
		_, err := Serialize(v)
		assert.True(t, IsUnsupportedTypeError(err), "%T", v)
	}

	_, err := Serialize(time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrDateOutOfRange)
}

func TestWriterSharesTablesUntilReset(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.Serialize("hello"))
	require.NoError(t, w.Serialize("hello"))
	require.NoError(t, w.Serialize(user{"Ann", 1}))
	require.NoError(t, w.Serialize(user{"Bob", 2}))
	assert.Equal(t, `s5"hello"r0;c4"user"2{s4"name"s3"age"}o0{s3"Ann"1}o0{s3"Bob"2}`, buf.String())

	buf.Reset()
	w.Reset()
	require.NoError(t, w.Serialize("hello"))
	require.NoError(t, w.Serialize(user{"Ann", 1}))
	assert.Equal(t, `s5"hello"c4"user"2{s4"name"s3"age"}o0{s3"Ann"1}`, buf.String())
	assert.Same(t, &buf, w.Buffer())
}

func TestSerializeMaxDepth(t *testing.T) {
	_, err := Serialize([][][]int{{{1}}}, WithMaxDepth(2))
	assert.ErrorIs(t, err, ErrMaxDepth)

	data, err := Serialize([][]int{{1}}, WithMaxDepth(2))
	require.NoError(t, err)
	assert.Equal(t, "a1{a1{1}}", string(data))
}
