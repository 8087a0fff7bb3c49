package hprose

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/hengadev/hprose/internal/accessor"
	"github.com/hengadev/hprose/internal/tags"
)

// readScalar reads the natural Go value of a scalar tag. Strings, bytes,
// GUIDs and date/times are registered as references. target only appears in
// errors.
func (r *Reader) readScalar(tag byte, target reflect.Type) (any, error) {
	if tags.IsDigit(tag) {
		return int(tag - '0'), nil
	}
	switch tag {
	case tags.Integer:
		i, err := r.in.ReadInt()
		if err != nil {
			return nil, err
		}
		if err := r.in.Expect(tags.Semicolon); err != nil {
			return nil, err
		}
		return int(i), nil
	case tags.Long:
		text, err := r.in.ReadIntText()
		if err != nil {
			return nil, err
		}
		if err := r.in.Expect(tags.Semicolon); err != nil {
			return nil, err
		}
		if i, err := strconv.ParseInt(string(text), 10, 64); err == nil {
			return i, nil
		}
		b, ok := new(big.Int).SetString(string(text), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
		}
		return b, nil
	case tags.Double:
		text, err := r.in.ReadUntil(tags.Semicolon)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(string(text), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
		}
		return f, nil
	case tags.NaN:
		return math.NaN(), nil
	case tags.Infinity:
		sign, err := r.in.ReadByte()
		if err != nil {
			return nil, err
		}
		switch sign {
		case tags.Pos:
			return math.Inf(1), nil
		case tags.Neg:
			return math.Inf(-1), nil
		}
		return nil, fmt.Errorf("%w: infinity sign %q", ErrUnexpectedByte, sign)
	case tags.True:
		return true, nil
	case tags.False:
		return false, nil
	case tags.Empty:
		return "", nil
	case tags.UTF8Char:
		return r.in.ReadUTF16(1)
	case tags.String:
		s, err := r.in.ReadStringPayload()
		if err != nil {
			return nil, err
		}
		r.refer.Add(s)
		return s, nil
	case tags.Bytes:
		b, err := r.in.ReadBytesPayload()
		if err != nil {
			return nil, err
		}
		r.refer.Add(b)
		return b, nil
	case tags.GUID:
		id, err := r.in.ReadGUID()
		if err != nil {
			return nil, err
		}
		r.refer.Add(id)
		return id, nil
	case tags.Date:
		t, err := r.in.ReadDateTime()
		if err != nil {
			return nil, err
		}
		r.refer.Add(t)
		return t, nil
	case tags.Time:
		t, err := r.in.ReadTime()
		if err != nil {
			return nil, err
		}
		r.refer.Add(t)
		return t, nil
	case tags.List, tags.Map, tags.Object:
		return nil, NewTypeMismatchError(tag, target)
	}
	return nil, NewUnexpectedTagError(tag, "a value")
}

// assign stores a decoded or referenced value into v, converting primitives
// when the types differ.
func (r *Reader) assign(value any, v reflect.Value) error {
	if value == nil {
		v.SetZero()
		return nil
	}
	src := reflect.ValueOf(value)
	t := v.Type()
	switch {
	case src.Type().AssignableTo(t):
		v.Set(src)
		return nil
	case src.Kind() == reflect.Pointer && src.Type().Elem().AssignableTo(t) && !src.IsNil():
		v.Set(src.Elem())
		return nil
	case t.Kind() == reflect.Pointer && src.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(src)
		v.Set(p)
		return nil
	}
	if ok, err := r.rebind(src, v); ok || err != nil {
		return err
	}
	out, err := r.registry.converters.Convert(src, t)
	if err != nil {
		return err
	}
	v.Set(out)
	return nil
}

// rebind copies an untyped container into v's shape. Skipped members and
// values first read into any are stored untyped, so a later typed reference
// to them arrives here. Records are matched by member name. ok is false when
// src is not an untyped container or v has no matching shape.
func (r *Reader) rebind(src, v reflect.Value) (ok bool, err error) {
	switch src.Interface().(type) {
	case map[string]any, map[any]any, []any:
	default:
		return false, nil
	}
	if err := r.enter(); err != nil {
		return true, err
	}
	defer r.leave()

	t := v.Type()
	switch t.Kind() {
	case reflect.Pointer:
		p := reflect.New(t.Elem())
		if ok, err = r.rebind(src, p.Elem()); ok && err == nil {
			v.Set(p)
		}
		return ok, err
	case reflect.Struct:
		if src.Kind() != reflect.Map {
			return false, nil
		}
		members, err := r.registry.members.Get(t, r.cfg.Mode)
		if err != nil {
			return true, err
		}
		for iter := src.MapRange(); iter.Next(); {
			name, isName := iter.Key().Interface().(string)
			if !isName {
				continue
			}
			m, found := members.Lookup(name)
			if !found {
				continue
			}
			value := reflect.New(m.Type).Elem()
			if err := r.assign(iter.Value().Interface(), value); err != nil {
				return true, fmt.Errorf("%s: %w", name, err)
			}
			m.Set(v, value)
		}
		return true, nil
	case reflect.Slice:
		if src.Kind() != reflect.Slice {
			return false, nil
		}
		s := reflect.MakeSlice(t, src.Len(), src.Len())
		for i := range src.Len() {
			if err := r.assign(src.Index(i).Interface(), s.Index(i)); err != nil {
				return true, err
			}
		}
		v.Set(s)
		return true, nil
	case reflect.Array:
		if src.Kind() != reflect.Slice {
			return false, nil
		}
		for i := range v.Len() {
			if i >= src.Len() {
				v.Index(i).SetZero()
				continue
			}
			if err := r.assign(src.Index(i).Interface(), v.Index(i)); err != nil {
				return true, err
			}
		}
		return true, nil
	case reflect.Map:
		if src.Kind() != reflect.Map {
			return false, nil
		}
		m := reflect.MakeMapWithSize(t, src.Len())
		for iter := src.MapRange(); iter.Next(); {
			key := reflect.New(t.Key()).Elem()
			if err := r.assign(iter.Key().Interface(), key); err != nil {
				return true, err
			}
			value := reflect.New(t.Elem()).Elem()
			if err := r.assign(iter.Value().Interface(), value); err != nil {
				return true, err
			}
			m.SetMapIndex(key, value)
		}
		v.Set(m)
		return true, nil
	}
	return false, nil
}

func decodeScalar(r *Reader, tag byte, v reflect.Value) error {
	value, err := r.readScalar(tag, v.Type())
	if err != nil {
		return err
	}
	return r.assign(value, v)
}

// decodeBytes accepts the bytes tag, any string form and lists of numbers.
func decodeBytes(r *Reader, tag byte, v reflect.Value) error {
	if tag == tags.List {
		if v.Kind() == reflect.Array {
			return decodeArray(r, tag, v)
		}
		return decodeSlice(r, tag, v)
	}
	value, err := r.readScalar(tag, v.Type())
	if err != nil {
		return err
	}
	if v.Kind() != reflect.Array {
		return r.assign(value, v)
	}
	var b []byte
	switch x := value.(type) {
	case []byte:
		b = x
	case string:
		b = []byte(x)
	default:
		return NewTypeMismatchError(tag, v.Type())
	}
	n := copyBytes(v, b)
	for i := n; i < v.Len(); i++ {
		v.Index(i).SetZero()
	}
	return nil
}

func copyBytes(dst reflect.Value, b []byte) int {
	n := min(dst.Len(), len(b))
	for i := range n {
		dst.Index(i).SetUint(uint64(b[i]))
	}
	return n
}

func decodeSlice(r *Reader, tag byte, v reflect.Value) error {
	if tag != tags.List {
		return NewTypeMismatchError(tag, v.Type())
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return err
	}
	t := v.Type()
	if counted {
		s := reflect.MakeSlice(t, n, n)
		v.Set(s)
		r.refer.Add(s.Interface())
		for i := range n {
			if err := r.decode(s.Index(i)); err != nil {
				return err
			}
		}
		return r.in.Expect(tags.CloseBrace)
	}

	index := r.refer.Add(nil)
	s := reflect.MakeSlice(t, 0, 0)
	for {
		more, err := r.more(false, 0, 0)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := r.decode(elem); err != nil {
			return err
		}
		s = reflect.Append(s, elem)
	}
	if err := r.in.Expect(tags.CloseBrace); err != nil {
		return err
	}
	v.Set(s)
	r.refer.Set(index, s.Interface())
	return nil
}

// decodeArray fills a fixed-size array. Surplus elements are read and
// dropped, missing ones are zeroed.
func decodeArray(r *Reader, tag byte, v reflect.Value) error {
	if tag != tags.List {
		return NewTypeMismatchError(tag, v.Type())
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return err
	}
	index := r.refer.Add(nil)
	i := 0
	for ; ; i++ {
		more, err := r.more(counted, i, n)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if i < v.Len() {
			err = r.decode(v.Index(i))
		} else {
			err = r.skip()
		}
		if err != nil {
			return err
		}
	}
	if err := r.in.Expect(tags.CloseBrace); err != nil {
		return err
	}
	for ; i < v.Len(); i++ {
		v.Index(i).SetZero()
	}
	r.refer.Set(index, v.Interface())
	return nil
}

func decodeMap(r *Reader, tag byte, v reflect.Value) error {
	switch tag {
	case tags.Map:
		return r.readMapInto(v)
	case tags.Object:
		return r.readObjectIntoMap(v)
	}
	return NewTypeMismatchError(tag, v.Type())
}

func (r *Reader) readMapInto(v reflect.Value) error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return err
	}
	t := v.Type()
	m := reflect.MakeMapWithSize(t, n)
	v.Set(m)
	r.refer.Add(m.Interface())
	for i := 0; ; i++ {
		more, err := r.more(counted, i, n)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		key := reflect.New(t.Key()).Elem()
		if err := r.decode(key); err != nil {
			return err
		}
		if !key.Comparable() {
			return fmt.Errorf("%w: map key of type %s is not hashable", ErrTypeMismatch, key.Type())
		}
		value := reflect.New(t.Elem()).Elem()
		if err := r.decode(value); err != nil {
			return err
		}
		m.SetMapIndex(key, value)
	}
	return r.in.Expect(tags.CloseBrace)
}

func (r *Reader) readObjectIntoMap(v reflect.Value) error {
	cls, err := r.readObjectClass()
	if err != nil {
		return err
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	t := v.Type()
	m := reflect.MakeMapWithSize(t, len(cls.fields))
	v.Set(m)
	r.refer.Add(m.Interface())
	for _, name := range cls.fields {
		key := reflect.New(t.Key()).Elem()
		if err := r.assign(name, key); err != nil {
			return err
		}
		value := reflect.New(t.Elem()).Elem()
		if err := r.decode(value); err != nil {
			return err
		}
		m.SetMapIndex(key, value)
	}
	return r.in.Expect(tags.CloseBrace)
}

// decodeRecord fills a struct from an object or from a map keyed by member
// names. Names are matched case-insensitively and unknown ones are skipped.
func decodeRecord(r *Reader, tag byte, v reflect.Value) error {
	switch tag {
	case tags.Object:
		return r.readObjectInto(v)
	case tags.Map:
		return r.readMapIntoRecord(v)
	}
	return NewTypeMismatchError(tag, v.Type())
}

func (r *Reader) readObjectInto(v reflect.Value) error {
	cls, err := r.readObjectClass()
	if err != nil {
		return err
	}
	members, err := r.registry.members.Get(v.Type(), r.cfg.Mode)
	if err != nil {
		return err
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	r.refer.Add(v.Addr().Interface())
	for _, name := range cls.fields {
		if err := r.decodeMember(v, members, name); err != nil {
			return fmt.Errorf("%s.%s: %w", cls.name, name, err)
		}
	}
	return r.in.Expect(tags.CloseBrace)
}

func (r *Reader) readMapIntoRecord(v reflect.Value) error {
	members, err := r.registry.members.Get(v.Type(), r.cfg.Mode)
	if err != nil {
		return err
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return err
	}
	r.refer.Add(v.Addr().Interface())
	for i := 0; ; i++ {
		more, err := r.more(counted, i, n)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		var name string
		if err := r.decode(reflect.ValueOf(&name).Elem()); err != nil {
			return err
		}
		if err := r.decodeMember(v, members, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return r.in.Expect(tags.CloseBrace)
}

func (r *Reader) decodeMember(record reflect.Value, members *accessor.Members, name string) error {
	m, ok := members.Lookup(name)
	if !ok {
		return r.skip()
	}
	if target := m.Target(record); target.IsValid() {
		return r.decode(target)
	}
	value := reflect.New(m.Type).Elem()
	if err := r.decode(value); err != nil {
		return err
	}
	m.Set(record, value)
	return nil
}

func decodePointer(r *Reader, tag byte, v reflect.Value) error {
	p := v
	if v.IsNil() {
		p = reflect.New(v.Type().Elem())
		v.Set(p)
	}
	return r.decodeTag(tag, p.Elem())
}

func decodeInterface(r *Reader, tag byte, v reflect.Value) error {
	value, err := r.readAny(tag)
	if err != nil {
		return err
	}
	if value == nil {
		v.SetZero()
		return nil
	}
	src := reflect.ValueOf(value)
	if !src.Type().AssignableTo(v.Type()) {
		return fmt.Errorf("%w: %s does not implement %s", ErrTypeMismatch, src.Type(), v.Type())
	}
	v.Set(src)
	return nil
}

// skip reads one value and discards it.
func (r *Reader) skip() error {
	_, err := r.readAnyValue()
	return err
}
