// Package refer keeps the per-stream reference tables that let repeated and
// cyclic values be written once and referred to by index afterwards.
package refer

import (
	"bytes"
	"reflect"

	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

type sliceKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

type pointerKey struct {
	typ reflect.Type
	ptr uintptr
}

// KeyOf returns the identity under which v is recorded in a WriterRefer, or
// nil when v has no identity worth sharing. Strings are identified by value,
// slices by their backing array and length, maps and pointers by address.
// Empty slices and pointers to zero-size values may share an address with
// unrelated values, so they get no identity.
func KeyOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return nil
		}
		return sliceKey{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}
	case reflect.Pointer:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return nil
		}
		return pointerKey{typ: v.Type(), ptr: v.Pointer()}
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		return pointerKey{typ: v.Type(), ptr: v.Pointer()}
	}
	return nil
}

// WriterRefer maps value identities to the index they were first written at.
// Indices are assigned in the order values begin encoding.
type WriterRefer struct {
	refs map[any]int
	last int
}

// NewWriterRefer returns an empty table.
func NewWriterRefer() *WriterRefer {
	return &WriterRefer{refs: make(map[any]int)}
}

// Write emits a back-reference for key and reports true when key has already
// been registered. Otherwise it writes nothing and reports false.
func (r *WriterRefer) Write(buf *bytes.Buffer, key any) bool {
	if key == nil {
		return false
	}
	index, ok := r.refs[key]
	if !ok {
		return false
	}
	buf.WriteByte(tags.Ref)
	wire.WriteInt(buf, int64(index))
	buf.WriteByte(tags.Semicolon)
	return true
}

// Set registers key at the next index. A nil key only consumes the index so
// the counter stays aligned with readers.
func (r *WriterRefer) Set(key any) {
	if key != nil {
		r.refs[key] = r.last
	}
	r.last++
}

// AddCount consumes n indices without registering anything.
func (r *WriterRefer) AddCount(n int) {
	r.last += n
}

// Len returns the number of indices consumed so far.
func (r *WriterRefer) Len() int {
	return r.last
}

// Reset forgets every registered identity.
func (r *WriterRefer) Reset() {
	clear(r.refs)
	r.last = 0
}
