package hprose

import (
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/hengadev/hprose/internal/tags"
)

type strategy int

const (
	strategyUnsupported strategy = iota
	strategyBool
	strategyInt
	strategyUint
	strategyFloat
	strategyString
	strategyBytes
	strategyGUID
	strategyTime
	strategyBigInt
	strategyList
	strategyListEnumerable
	strategyMap
	strategyMapEnumerable
	strategyEnumerableMixed
	strategyRecord
	strategyAnonymousRecord
	strategyPointer
	strategyInterface
)

var strategyNames = [...]string{
	strategyUnsupported:     "unsupported",
	strategyBool:            "bool",
	strategyInt:             "int",
	strategyUint:            "uint",
	strategyFloat:           "float",
	strategyString:          "string",
	strategyBytes:           "bytes",
	strategyGUID:            "guid",
	strategyTime:            "time",
	strategyBigInt:          "bigint",
	strategyList:            "list",
	strategyListEnumerable:  "list-enumerable",
	strategyMap:             "map",
	strategyMapEnumerable:   "map-enumerable",
	strategyEnumerableMixed: "enumerable-mixed",
	strategyRecord:          "record",
	strategyAnonymousRecord: "anonymous-record",
	strategyPointer:         "pointer",
	strategyInterface:       "interface",
}

func (s strategy) String() string {
	if s >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

var (
	anyType       = reflect.TypeFor[any]()
	stringType    = reflect.TypeFor[string]()
	timeType      = reflect.TypeFor[time.Time]()
	guidType      = reflect.TypeFor[uuid.UUID]()
	bigIntType    = reflect.TypeFor[big.Int]()
	bigIntPtrType = reflect.TypeFor[*big.Int]()
	mixedSeqType  = reflect.TypeFor[func(func(any) bool)]()
)

type encodeFunc func(w *Writer, v reflect.Value) error

type decodeFunc func(r *Reader, tag byte, v reflect.Value) error

// codec is the per-type pair of encode and decode functions. Child codecs of
// containers are resolved when the container is written or read, so building
// a codec never recurses and recursive types need no special handling.
type codec struct {
	typ      reflect.Type
	strategy strategy
	encode   encodeFunc
	decode   decodeFunc
}

func newCodec(t reflect.Type) *codec {
	c := &codec{typ: t, strategy: strategyOf(t)}
	switch c.strategy {
	case strategyBool:
		c.encode, c.decode = encodeBool, decodeScalar
	case strategyInt:
		c.encode, c.decode = encodeInt, decodeScalar
	case strategyUint:
		c.encode, c.decode = encodeUint, decodeScalar
	case strategyFloat:
		c.encode, c.decode = encodeFloat, decodeScalar
	case strategyString:
		c.encode, c.decode = encodeString, decodeScalar
	case strategyBytes:
		c.encode, c.decode = encodeBytes, decodeBytes
	case strategyGUID:
		c.encode, c.decode = encodeGUID, decodeScalar
	case strategyTime:
		c.encode, c.decode = encodeTime, decodeScalar
	case strategyBigInt:
		c.encode, c.decode = encodeBigInt, decodeScalar
	case strategyList:
		if t.Kind() == reflect.Array {
			c.encode, c.decode = encodeArray, decodeArray
		} else {
			c.encode, c.decode = encodeSlice, decodeSlice
		}
	case strategyListEnumerable:
		c.encode, c.decode = encodeSeq, decodeUnsupported
	case strategyMap:
		c.encode, c.decode = encodeMap, decodeMap
	case strategyMapEnumerable:
		c.encode, c.decode = encodeSeq2, decodeUnsupported
	case strategyEnumerableMixed:
		c.encode, c.decode = encodeMixed, decodeUnsupported
	case strategyRecord:
		c.encode, c.decode = encodeRecord, decodeRecord
	case strategyAnonymousRecord:
		c.encode, c.decode = encodeAnonymous, decodeRecord
	case strategyPointer:
		c.encode, c.decode = encodePointer, decodePointer
	case strategyInterface:
		c.encode, c.decode = encodeInterface, decodeInterface
	default:
		c.encode, c.decode = encodeUnsupported, decodeUnsupported
	}
	c.decode = withCommon(c.decode)
	return c
}

func strategyOf(t reflect.Type) strategy {
	switch t {
	case timeType:
		return strategyTime
	case guidType:
		return strategyGUID
	case bigIntType, bigIntPtrType:
		return strategyBigInt
	}
	switch t.Kind() {
	case reflect.Bool:
		return strategyBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strategyInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strategyUint
	case reflect.Float32, reflect.Float64:
		return strategyFloat
	case reflect.String:
		return strategyString
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return strategyBytes
		}
		return strategyList
	case reflect.Map:
		return strategyMap
	case reflect.Struct:
		if t.Name() == "" {
			return strategyAnonymousRecord
		}
		return strategyRecord
	case reflect.Pointer:
		return strategyPointer
	case reflect.Interface:
		return strategyInterface
	case reflect.Func:
		return iteratorStrategy(t)
	}
	return strategyUnsupported
}

// iteratorStrategy recognizes range-over-func shapes: func(func(V) bool) and
// func(func(K, V) bool). A yield parameter of type any marks a mixed sequence
// whose tag depends on the yielded values.
func iteratorStrategy(t reflect.Type) strategy {
	if t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return strategyUnsupported
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.IsVariadic() || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return strategyUnsupported
	}
	switch yield.NumIn() {
	case 1:
		if yield.In(0) == anyType {
			return strategyEnumerableMixed
		}
		return strategyListEnumerable
	case 2:
		return strategyMapEnumerable
	}
	return strategyUnsupported
}

// withCommon handles the tags every destination accepts: null, references
// and class definitions that precede an object.
func withCommon(next decodeFunc) decodeFunc {
	return func(r *Reader, tag byte, v reflect.Value) error {
		tag, err := r.skipClasses(tag)
		if err != nil {
			return err
		}
		switch tag {
		case tags.Null:
			v.SetZero()
			return nil
		case tags.Ref:
			value, err := r.readRef()
			if err != nil {
				return err
			}
			return r.assign(value, v)
		}
		return next(r, tag, v)
	}
}

func encodeUnsupported(_ *Writer, v reflect.Value) error {
	return NewUnsupportedTypeError(v.Type())
}

func decodeUnsupported(_ *Reader, _ byte, v reflect.Value) error {
	return NewUnsupportedTypeError(v.Type())
}
