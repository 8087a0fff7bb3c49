package hprose

import (
	"bytes"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/hengadev/hprose/internal/accessor"
	"github.com/hengadev/hprose/internal/refer"
	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

func encodeBoolValue(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(tags.True)
	} else {
		buf.WriteByte(tags.False)
	}
}

func encodeBool(w *Writer, v reflect.Value) error {
	encodeBoolValue(w.buf, v.Bool())
	return nil
}

func encodeInt(w *Writer, v reflect.Value) error {
	wire.WriteInteger(w.buf, v.Int())
	return nil
}

func encodeUint(w *Writer, v reflect.Value) error {
	wire.WriteUnsigned(w.buf, v.Uint())
	return nil
}

func encodeFloat(w *Writer, v reflect.Value) error {
	wire.WriteDouble(w.buf, v.Float(), v.Type().Bits())
	return nil
}

func encodeString(w *Writer, v reflect.Value) error {
	w.writeString(v.String())
	return nil
}

func (w *Writer) writeString(s string) {
	switch {
	case s == "":
		w.buf.WriteByte(tags.Empty)
	case wire.IsSingleChar(s):
		w.buf.WriteByte(tags.UTF8Char)
		w.buf.WriteString(s)
	case w.writeRef(s):
	default:
		w.setRef(s)
		w.buf.WriteByte(tags.String)
		wire.WriteStringPayload(w.buf, s, wire.UTF16Length(s))
	}
}

func encodeBytes(w *Writer, v reflect.Value) error {
	var b []byte
	if v.Kind() == reflect.Slice {
		if v.IsNil() {
			w.buf.WriteByte(tags.Null)
			return nil
		}
		key := refer.KeyOf(v)
		if w.writeRef(key) {
			return nil
		}
		w.setRef(key)
		b = v.Bytes()
	} else {
		w.setRef(nil)
		b = make([]byte, v.Len())
		for i := range b {
			b[i] = byte(v.Index(i).Uint())
		}
	}
	w.buf.WriteByte(tags.Bytes)
	wire.WriteBytesPayload(w.buf, b)
	return nil
}

func encodeGUID(w *Writer, v reflect.Value) error {
	var id uuid.UUID
	for i := range id {
		id[i] = byte(v.Index(i).Uint())
	}
	w.setRef(nil)
	wire.WriteGUID(w.buf, id)
	return nil
}

func encodeTime(w *Writer, v reflect.Value) error {
	t, ok := v.Interface().(time.Time)
	if !ok {
		return NewUnsupportedTypeError(v.Type())
	}
	w.setRef(nil)
	return wire.WriteDateTime(w.buf, t)
}

func encodeBigInt(w *Writer, v reflect.Value) error {
	var b *big.Int
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			w.buf.WriteByte(tags.Null)
			return nil
		}
		b = v.Interface().(*big.Int)
	} else {
		x := v.Interface().(big.Int)
		b = &x
	}
	w.buf.WriteByte(tags.Long)
	w.buf.WriteString(b.String())
	w.buf.WriteByte(tags.Semicolon)
	return nil
}

func encodeSlice(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	key := refer.KeyOf(v)
	if w.writeRef(key) {
		return nil
	}
	w.setRef(key)
	return w.writeList(v)
}

func encodeArray(w *Writer, v reflect.Value) error {
	w.setRef(nil)
	return w.writeList(v)
}

func (w *Writer) writeList(v reflect.Value) error {
	if err := w.enter(v.Type()); err != nil {
		return err
	}
	defer w.leave()

	n := v.Len()
	w.buf.WriteByte(tags.List)
	wire.WriteCount(w.buf, n)
	w.buf.WriteByte(tags.OpenBrace)
	for i := range n {
		if err := w.encode(v.Index(i)); err != nil {
			return err
		}
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

// encodeMap writes entries in Go map iteration order, which is unspecified.
func encodeMap(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	key := refer.KeyOf(v)
	if w.writeRef(key) {
		return nil
	}
	w.setRef(key)
	if err := w.enter(v.Type()); err != nil {
		return err
	}
	defer w.leave()

	w.buf.WriteByte(tags.Map)
	wire.WriteCount(w.buf, v.Len())
	w.buf.WriteByte(tags.OpenBrace)
	iter := v.MapRange()
	for iter.Next() {
		if err := w.encode(iter.Key()); err != nil {
			return err
		}
		if err := w.encode(iter.Value()); err != nil {
			return err
		}
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

func encodeRecord(w *Writer, v reflect.Value) error {
	return w.writeRecord(v, nil)
}

// writeRecord writes a named struct as an object. key is the identity of the
// pointer the struct was reached through, nil when it was reached by value.
func (w *Writer) writeRecord(v reflect.Value, key any) error {
	t := v.Type()
	members, err := w.registry.members.Get(t, w.cfg.Mode)
	if err != nil {
		return err
	}
	v = addressable(v, members)

	index, ok := w.classes[t]
	if !ok {
		index = w.writeClass(t, members)
	}
	w.setRef(key)
	if err := w.enter(t); err != nil {
		return err
	}
	defer w.leave()

	w.buf.WriteByte(tags.Object)
	wire.WriteInt(w.buf, int64(index))
	w.buf.WriteByte(tags.OpenBrace)
	for _, m := range members.List {
		if err := w.encode(m.Get(v)); err != nil {
			return err
		}
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

// writeClass writes the class definition of t and returns its class index.
// Field names occupy reference slots on both sides without being referable.
func (w *Writer) writeClass(t reflect.Type, members *accessor.Members) int {
	name := w.registry.ClassName(t)
	w.buf.WriteByte(tags.Class)
	wire.WriteStringPayload(w.buf, name, wire.UTF16Length(name))
	wire.WriteCount(w.buf, members.Len())
	w.buf.WriteByte(tags.OpenBrace)
	for _, m := range members.List {
		w.buf.WriteByte(tags.String)
		wire.WriteStringPayload(w.buf, m.Name, wire.UTF16Length(m.Name))
	}
	w.buf.WriteByte(tags.CloseBrace)
	if w.refer != nil {
		w.refer.AddCount(members.Len())
	}

	index := len(w.classes)
	w.classes[t] = index
	return index
}

func encodeAnonymous(w *Writer, v reflect.Value) error {
	return w.writeAnonymous(v, nil)
}

// writeAnonymous writes an unnamed struct as a map from member names to values.
func (w *Writer) writeAnonymous(v reflect.Value, key any) error {
	t := v.Type()
	members, err := w.registry.members.Get(t, w.cfg.Mode)
	if err != nil {
		return err
	}
	v = addressable(v, members)

	w.setRef(key)
	if err := w.enter(t); err != nil {
		return err
	}
	defer w.leave()

	w.buf.WriteByte(tags.Map)
	wire.WriteCount(w.buf, members.Len())
	w.buf.WriteByte(tags.OpenBrace)
	for _, m := range members.List {
		w.writeString(m.Name)
		if err := w.encode(m.Get(v)); err != nil {
			return err
		}
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

// addressable copies v into a fresh variable when its members need an
// address: properties have pointer receivers and unexported fields are read
// through unsafe pointers.
func addressable(v reflect.Value, members *accessor.Members) reflect.Value {
	if !members.NeedsAddr || v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

func encodePointer(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	elem := v.Elem()
	switch w.registry.codecOf(elem.Type()).strategy {
	case strategyRecord:
		key := refer.KeyOf(v)
		if w.writeRef(key) {
			return nil
		}
		return w.writeRecord(elem, key)
	case strategyAnonymousRecord:
		key := refer.KeyOf(v)
		if w.writeRef(key) {
			return nil
		}
		return w.writeAnonymous(elem, key)
	}
	return w.encode(elem)
}

func encodeInterface(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	return w.encode(v.Elem())
}
