package hprose

import (
	"fmt"
	"reflect"

	"github.com/hengadev/hprose/internal/refer"
	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

// classInfo is a class definition seen earlier in the stream.
type classInfo struct {
	name   string
	fields []string
	typ    reflect.Type // nil when the class is not registered
}

// Reader decodes hprose text. Like Writer it keeps its reference and class
// tables across Deserialize calls until Reset. The reader always tracks
// references, so it accepts both simple and reference-tracking streams.
type Reader struct {
	in       *wire.Reader
	cfg      *Config
	registry *Registry
	refer    *refer.ReaderRefer
	classes  []*classInfo
	depth    int
}

// NewReader returns a Reader over data.
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newReader(data, cfg), nil
}

func newReader(data []byte, cfg *Config) *Reader {
	return &Reader{
		in:       wire.NewReader(data),
		cfg:      cfg,
		registry: cfg.Registry,
		refer:    refer.NewReaderRefer(),
	}
}

// Deserialize decodes the next value into the value ptr points to. The value
// is built separately and stored only once decoding succeeds, so a failed
// call leaves *ptr unchanged.
func (r *Reader) Deserialize(ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return NewInvalidTargetError(ptr)
	}
	start := r.in.Offset()
	out := reflect.New(rv.Type().Elem())
	if err := r.decode(out.Elem()); err != nil {
		r.cfg.Logger.Debug("decode failed",
			"target", rv.Type().Elem().String(),
			"offset", start,
			"error", err)
		return fmt.Errorf("decode %s at offset %d: %w", rv.Type().Elem(), start, err)
	}
	rv.Elem().Set(out.Elem())
	return nil
}

// ReadArguments reads a list whose element i is decoded into types[i].
// Extra elements are decoded untyped and missing ones are zero values.
func (r *Reader) ReadArguments(types []reflect.Type) ([]reflect.Value, error) {
	tag, err := r.in.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != tags.List {
		return nil, NewUnexpectedTagError(tag, "an argument list")
	}
	if err := r.enter(); err != nil {
		return nil, err
	}
	defer r.leave()

	n, counted, err := r.readCount()
	if err != nil {
		return nil, err
	}
	list := make([]any, n)
	index := r.refer.Add(list)
	values := make([]reflect.Value, 0, max(n, len(types)))
	for i := 0; ; i++ {
		more, err := r.more(counted, i, n)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		t := anyType
		if i < len(types) {
			t = types[i]
		}
		v := reflect.New(t).Elem()
		if err := r.decode(v); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values = append(values, v)
		if counted {
			list[i] = v.Interface()
		} else {
			list = append(list, v.Interface())
		}
	}
	if err := r.in.Expect(tags.CloseBrace); err != nil {
		return nil, err
	}
	r.refer.Set(index, list)
	for i := len(values); i < len(types); i++ {
		values = append(values, reflect.New(types[i]).Elem())
	}
	return values, nil
}

// ReadTag consumes the next byte.
func (r *Reader) ReadTag() (byte, error) {
	return r.in.ReadByte()
}

// PeekTag returns the next byte without consuming it.
func (r *Reader) PeekTag() (byte, error) {
	return r.in.PeekByte()
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.in.Remaining()
}

// Reset clears the reference and class tables. The read position is kept.
func (r *Reader) Reset() {
	r.refer.Reset()
	r.classes = r.classes[:0]
	r.depth = 0
}

func (r *Reader) decode(v reflect.Value) error {
	tag, err := r.in.ReadByte()
	if err != nil {
		return err
	}
	return r.decodeTag(tag, v)
}

func (r *Reader) decodeTag(tag byte, v reflect.Value) error {
	return r.registry.codecOf(v.Type()).decode(r, tag, v)
}

func (r *Reader) readRef() (any, error) {
	i, err := r.in.ReadInt()
	if err != nil {
		return nil, err
	}
	if err := r.in.Expect(tags.Semicolon); err != nil {
		return nil, err
	}
	return r.refer.Read(int(i))
}

// readCount reads the optional count and the opening brace of a container.
// counted is false when the peer omitted the count.
func (r *Reader) readCount() (n int, counted bool, err error) {
	b, err := r.in.PeekByte()
	if err != nil {
		return 0, false, err
	}
	counted = tags.IsDigit(b)
	if n, err = r.in.ReadCount(); err != nil {
		return 0, false, err
	}
	if err = r.in.Expect(tags.OpenBrace); err != nil {
		return 0, false, err
	}
	return n, counted, nil
}

// more reports whether element i of a container exists.
func (r *Reader) more(counted bool, i, n int) (bool, error) {
	if counted {
		return i < n, nil
	}
	b, err := r.in.PeekByte()
	if err != nil {
		return false, err
	}
	return b != tags.CloseBrace, nil
}

// skipClasses reads any run of class definitions starting at tag and returns
// the tag of the value that follows them.
func (r *Reader) skipClasses(tag byte) (byte, error) {
	for tag == tags.Class {
		if err := r.readClass(); err != nil {
			return 0, err
		}
		next, err := r.in.ReadByte()
		if err != nil {
			return 0, err
		}
		tag = next
	}
	return tag, nil
}

// readClass reads a class definition after its tag. Field names are decoded
// as ordinary strings so they take reference slots like the writer's.
func (r *Reader) readClass() error {
	if err := r.enter(); err != nil {
		return err
	}
	defer r.leave()

	name, err := r.in.ReadStringPayload()
	if err != nil {
		return err
	}
	count, err := r.in.ReadCount()
	if err != nil {
		return err
	}
	if err := r.in.Expect(tags.OpenBrace); err != nil {
		return err
	}
	fields := make([]string, count)
	for i := range fields {
		if err := r.decode(reflect.ValueOf(&fields[i]).Elem()); err != nil {
			return fmt.Errorf("class %q field %d: %w", name, i, err)
		}
	}
	if err := r.in.Expect(tags.CloseBrace); err != nil {
		return err
	}
	typ, _ := r.registry.ClassType(name)
	r.classes = append(r.classes, &classInfo{name: name, fields: fields, typ: typ})
	return nil
}

// readObjectClass reads the class index and opening brace after an object tag.
func (r *Reader) readObjectClass() (*classInfo, error) {
	i, err := r.in.ReadInt()
	if err != nil {
		return nil, err
	}
	if err := r.in.Expect(tags.OpenBrace); err != nil {
		return nil, err
	}
	if i < 0 || i >= int64(len(r.classes)) {
		return nil, fmt.Errorf("%w: class %d of %d defined", ErrInvalidReference, i, len(r.classes))
	}
	return r.classes[i], nil
}

func (r *Reader) enter() error {
	r.depth++
	if r.depth > r.cfg.MaxDepth {
		return fmt.Errorf("%w: more than %d levels at offset %d", ErrMaxDepth, r.cfg.MaxDepth, r.in.Offset())
	}
	return nil
}

func (r *Reader) leave() {
	r.depth--
}
