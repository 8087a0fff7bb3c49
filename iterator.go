package hprose

import (
	"fmt"
	"reflect"

	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

var (
	yieldContinue = []reflect.Value{reflect.ValueOf(true)}
	yieldStop     = []reflect.Value{reflect.ValueOf(false)}
)

// countSeq runs the iterator once without encoding anything. The count is
// written before the elements, so iterators must yield the same elements on
// every run.
func countSeq(seq reflect.Value) int {
	n := 0
	yield := reflect.MakeFunc(seq.Type().In(0), func([]reflect.Value) []reflect.Value {
		n++
		return yieldContinue
	})
	seq.Call([]reflect.Value{yield})
	return n
}

// runSeq runs the iterator and hands each yielded argument list to each.
// It returns the number of elements seen and the first error from each.
func runSeq(seq reflect.Value, each func(args []reflect.Value) error) (int, error) {
	var (
		n   int
		err error
	)
	yield := reflect.MakeFunc(seq.Type().In(0), func(args []reflect.Value) []reflect.Value {
		if err = each(args); err != nil {
			return yieldStop
		}
		n++
		return yieldContinue
	})
	seq.Call([]reflect.Value{yield})
	return n, err
}

func unstableSeq(t reflect.Type, counted, yielded int) error {
	return fmt.Errorf("%w: %s yielded %d elements after counting %d", ErrUnsupportedType, t, yielded, counted)
}

func encodeSeq(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	w.setRef(nil)
	if err := w.enter(v.Type()); err != nil {
		return err
	}
	defer w.leave()

	count := countSeq(v)
	w.buf.WriteByte(tags.List)
	wire.WriteCount(w.buf, count)
	w.buf.WriteByte(tags.OpenBrace)
	n, err := runSeq(v, func(args []reflect.Value) error {
		return w.encode(args[0])
	})
	if err != nil {
		return err
	}
	if n != count {
		return unstableSeq(v.Type(), count, n)
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

func encodeSeq2(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	w.setRef(nil)
	if err := w.enter(v.Type()); err != nil {
		return err
	}
	defer w.leave()

	count := countSeq(v)
	w.buf.WriteByte(tags.Map)
	wire.WriteCount(w.buf, count)
	w.buf.WriteByte(tags.OpenBrace)
	n, err := runSeq(v, func(args []reflect.Value) error {
		if err := w.encode(args[0]); err != nil {
			return err
		}
		return w.encode(args[1])
	})
	if err != nil {
		return err
	}
	if n != count {
		return unstableSeq(v.Type(), count, n)
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}

// encodeMixed collects the sequence once, then decides between map and list.
// An empty sequence is written as an empty list.
func encodeMixed(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.buf.WriteByte(tags.Null)
		return nil
	}
	seq := v.Convert(mixedSeqType).Interface().(func(func(any) bool))
	var items []any
	seq(func(item any) bool {
		items = append(items, item)
		return true
	})

	pairs := len(items) > 0
	for _, item := range items {
		if _, ok := item.(Pair); !ok {
			pairs = false
			break
		}
	}

	w.setRef(nil)
	if err := w.enter(v.Type()); err != nil {
		return err
	}
	defer w.leave()

	if pairs {
		w.buf.WriteByte(tags.Map)
		wire.WriteCount(w.buf, len(items))
		w.buf.WriteByte(tags.OpenBrace)
		for _, item := range items {
			p := item.(Pair)
			if err := w.encode(reflect.ValueOf(p.Key)); err != nil {
				return err
			}
			if err := w.encode(reflect.ValueOf(p.Value)); err != nil {
				return err
			}
		}
	} else {
		w.buf.WriteByte(tags.List)
		wire.WriteCount(w.buf, len(items))
		w.buf.WriteByte(tags.OpenBrace)
		for _, item := range items {
			if err := w.encode(reflect.ValueOf(item)); err != nil {
				return err
			}
		}
	}
	w.buf.WriteByte(tags.CloseBrace)
	return nil
}
