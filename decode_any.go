package hprose

import (
	"fmt"
	"reflect"

	"github.com/hengadev/hprose/internal/tags"
)

// readAny decodes a value without a destination type. Lists become []any,
// maps become map[any]any, objects of registered classes become a pointer to
// the registered struct and other objects become map[string]any.
func (r *Reader) readAny(tag byte) (any, error) {
	tag, err := r.skipClasses(tag)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tags.Null:
		return nil, nil
	case tags.Ref:
		return r.readRef()
	case tags.List:
		return r.readAnyList()
	case tags.Map:
		return r.readAnyMap()
	case tags.Object:
		return r.readAnyObject()
	}
	return r.readScalar(tag, anyType)
}

func (r *Reader) readAnyValue() (any, error) {
	tag, err := r.in.ReadByte()
	if err != nil {
		return nil, err
	}
	return r.readAny(tag)
}

func (r *Reader) readAnyList() (any, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return nil, err
	}
	if counted {
		list := make([]any, n)
		r.refer.Add(list)
		for i := range list {
			if list[i], err = r.readAnyValue(); err != nil {
				return nil, err
			}
		}
		return list, r.in.Expect(tags.CloseBrace)
	}

	index := r.refer.Add(nil)
	list := []any{}
	for {
		more, err := r.more(false, 0, 0)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		item, err := r.readAnyValue()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	if err := r.in.Expect(tags.CloseBrace); err != nil {
		return nil, err
	}
	r.refer.Set(index, list)
	return list, nil
}

func (r *Reader) readAnyMap() (any, error) {
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return nil, err
	}
	m := make(map[any]any, n)
	r.refer.Add(m)
	for i := 0; ; i++ {
		more, err := r.more(counted, i, n)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		key, err := r.readAnyValue()
		if err != nil {
			return nil, err
		}
		if key != nil && !reflect.ValueOf(key).Comparable() {
			return nil, fmt.Errorf("%w: map key of type %T is not hashable", ErrTypeMismatch, key)
		}
		value, err := r.readAnyValue()
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, r.in.Expect(tags.CloseBrace)
}

func (r *Reader) readAnyObject() (any, error) {
	cls, err := r.readObjectClass()
	if err != nil {
		return nil, err
	}
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	if cls.typ != nil {
		members, err := r.registry.members.Get(cls.typ, r.cfg.Mode)
		if err != nil {
			return nil, err
		}
		p := reflect.New(cls.typ)
		r.refer.Add(p.Interface())
		for _, name := range cls.fields {
			if err := r.decodeMember(p.Elem(), members, name); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", cls.name, name, err)
			}
		}
		return p.Interface(), r.in.Expect(tags.CloseBrace)
	}

	m := make(map[string]any, len(cls.fields))
	r.refer.Add(m)
	for _, name := range cls.fields {
		if m[name], err = r.readAnyValue(); err != nil {
			return nil, err
		}
	}
	return m, r.in.Expect(tags.CloseBrace)
}
