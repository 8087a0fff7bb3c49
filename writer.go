package hprose

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/hengadev/hprose/internal/refer"
	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

// Writer encodes values into hprose text. The reference table and the class
// table live as long as the Writer, so values written by successive Serialize
// calls share them until Reset. A Writer is not safe for concurrent use.
type Writer struct {
	buf      *bytes.Buffer
	cfg      *Config
	registry *Registry
	refer    *refer.WriterRefer
	classes  map[reflect.Type]int
	depth    int
}

// NewWriter returns a Writer that appends to buf. A nil buf allocates a new one.
func NewWriter(buf *bytes.Buffer, opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newWriter(buf, cfg), nil
}

func newWriter(buf *bytes.Buffer, cfg *Config) *Writer {
	if buf == nil {
		buf = new(bytes.Buffer)
	}
	w := &Writer{
		buf:      buf,
		cfg:      cfg,
		registry: cfg.Registry,
		classes:  make(map[reflect.Type]int),
	}
	if !cfg.Simple {
		w.refer = refer.NewWriterRefer()
	}
	return w
}

// Buffer returns the buffer the Writer appends to.
func (w *Writer) Buffer() *bytes.Buffer {
	return w.buf
}

// Mode returns the member mode used for struct types.
func (w *Writer) Mode() Mode {
	return w.cfg.Mode
}

// Serialize appends the encoding of v.
func (w *Writer) Serialize(v any) error {
	switch x := v.(type) {
	case nil:
		w.buf.WriteByte(tags.Null)
	case bool:
		encodeBoolValue(w.buf, x)
	case int:
		wire.WriteInteger(w.buf, int64(x))
	case int32:
		wire.WriteInteger(w.buf, int64(x))
	case int64:
		wire.WriteInteger(w.buf, x)
	case float64:
		wire.WriteDouble(w.buf, x, 64)
	case string:
		w.writeString(x)
	default:
		return w.encode(reflect.ValueOf(v))
	}
	return nil
}

// Reset clears the reference and class tables. The buffer is left untouched.
func (w *Writer) Reset() {
	if w.refer != nil {
		w.refer.Reset()
	}
	clear(w.classes)
	w.depth = 0
}

func (w *Writer) encode(v reflect.Value) error {
	if !v.IsValid() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	return w.registry.codecOf(v.Type()).encode(w, v)
}

// writeRef emits a back-reference when key was written before.
func (w *Writer) writeRef(key any) bool {
	if w.refer == nil {
		return false
	}
	return w.refer.Write(w.buf, key)
}

// setRef assigns the next reference index to key. A nil key consumes an
// index without being referable, which keeps both peers' tables aligned.
func (w *Writer) setRef(key any) {
	if w.refer != nil {
		w.refer.Set(key)
	}
}

func (w *Writer) enter(t reflect.Type) error {
	w.depth++
	if w.depth > w.cfg.MaxDepth {
		return fmt.Errorf("%w: more than %d levels writing %s", ErrMaxDepth, w.cfg.MaxDepth, t)
	}
	return nil
}

func (w *Writer) leave() {
	w.depth--
}
