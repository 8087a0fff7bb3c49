package hprose

import (
	"bytes"
	"fmt"
)

// Serializer converts Go values to and from hprose bytes. Codec implements it.
type Serializer interface {
	// Serialize returns the encoding of v as a standalone stream. Reference
	// and class tables start empty for each call.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes data into the value ptr points to.
	Deserialize(data []byte, ptr any) error
}

// Codec is a reusable Serializer with a fixed configuration. It is safe for
// concurrent use since every call gets its own Writer or Reader.
type Codec struct {
	cfg *Config
}

var _ Serializer = (*Codec)(nil)

// NewCodec validates opts once and returns a Codec using them.
func NewCodec(opts ...Option) (*Codec, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// Config returns a copy of the codec configuration.
func (c *Codec) Config() Config {
	return *c.cfg
}

// NewWriter returns a Writer sharing the codec configuration.
func (c *Codec) NewWriter(buf *bytes.Buffer) *Writer {
	return newWriter(buf, c.cfg)
}

// NewReader returns a Reader sharing the codec configuration.
func (c *Codec) NewReader(data []byte) *Reader {
	return newReader(data, c.cfg)
}

func (c *Codec) Serialize(v any) ([]byte, error) {
	w := newWriter(nil, c.cfg)
	if err := w.Serialize(v); err != nil {
		c.cfg.Logger.Debug("encode failed", "type", fmt.Sprintf("%T", v), "error", err)
		return nil, err
	}
	return w.buf.Bytes(), nil
}

func (c *Codec) Deserialize(data []byte, ptr any) error {
	return newReader(data, c.cfg).Deserialize(ptr)
}

// Serialize encodes v with a fresh Writer.
//
// Example:
//
//	data, err := hprose.Serialize([]int{1, 2, 3})
//	// data == "a3{123}"
func Serialize(v any, opts ...Option) ([]byte, error) {
	c, err := NewCodec(opts...)
	if err != nil {
		return nil, err
	}
	return c.Serialize(v)
}

// Deserialize decodes data into the value ptr points to with a fresh Reader.
//
// Example:
//
//	var values []int
//	err := hprose.Deserialize([]byte("a3{123}"), &values)
func Deserialize(data []byte, ptr any, opts ...Option) error {
	c, err := NewCodec(opts...)
	if err != nil {
		return err
	}
	return c.Deserialize(data, ptr)
}
