package refer

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReferCheckThenSet(t *testing.T) {
	r := NewWriterRefer()
	var buf bytes.Buffer

	assert.False(t, r.Write(&buf, "hello"))
	r.Set("hello")
	r.Set(nil)
	r.AddCount(2)

	list := []int{1, 2}
	key := KeyOf(reflect.ValueOf(list))
	assert.False(t, r.Write(&buf, key))
	r.Set(key)
	assert.Equal(t, 5, r.Len())

	assert.True(t, r.Write(&buf, "hello"))
	assert.True(t, r.Write(&buf, KeyOf(reflect.ValueOf(list))))
	assert.Equal(t, "r0;r4;", buf.String())
}

func TestWriterReferNilKeyNeverMatches(t *testing.T) {
	r := NewWriterRefer()
	var buf bytes.Buffer
	r.Set(nil)
	assert.False(t, r.Write(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriterReferReset(t *testing.T) {
	r := NewWriterRefer()
	var buf bytes.Buffer
	r.Set("a")
	r.Reset()
	assert.False(t, r.Write(&buf, "a"))
	assert.Equal(t, 0, r.Len())
}

func TestKeyOf(t *testing.T) {
	type node struct{ next *node }
	n := &node{}
	m := map[string]int{}
	s := []string{"x"}

	assert.Equal(t, "abc", KeyOf(reflect.ValueOf("abc")))
	assert.Equal(t, KeyOf(reflect.ValueOf(n)), KeyOf(reflect.ValueOf(n)))
	assert.Equal(t, KeyOf(reflect.ValueOf(m)), KeyOf(reflect.ValueOf(m)))
	assert.NotEqual(t, KeyOf(reflect.ValueOf(s)), KeyOf(reflect.ValueOf(s[:0])))
	assert.Nil(t, KeyOf(reflect.ValueOf(node{})))
	assert.Nil(t, KeyOf(reflect.ValueOf([]int(nil))))
	assert.Nil(t, KeyOf(reflect.ValueOf([]int{})))
	assert.Nil(t, KeyOf(reflect.ValueOf(&struct{}{})))
	assert.Nil(t, KeyOf(reflect.ValueOf(42)))
}

func TestReaderRefer(t *testing.T) {
	r := NewReaderRefer()
	assert.Equal(t, 0, r.Add("first"))
	assert.Equal(t, 1, r.Add(nil))
	r.Set(1, []any{1})

	v, err := r.Read(0)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = r.Read(1)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, v)

	_, err = r.Read(2)
	assert.ErrorIs(t, err, ErrInvalidReference)
	_, err = r.Read(-1)
	assert.ErrorIs(t, err, ErrInvalidReference)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	_, err = r.Read(0)
	assert.ErrorIs(t, err, ErrInvalidReference)
}
