package converter

import (
	"math/big"
	"math/bits"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Kind classifies the primitive representations that conversions operate on.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
	Bytes
	Time
	BigInt
	GUID
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Bytes:   "bytes",
	Time:    "time",
	BigInt:  "bigint",
	GUID:    "guid",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Invalid]
	}
	return kindNames[k]
}

var (
	timeType   = reflect.TypeFor[time.Time]()
	uuidType   = reflect.TypeFor[uuid.UUID]()
	bigType    = reflect.TypeFor[big.Int]()
	bigPtrType = reflect.TypeFor[*big.Int]()
)

var (
	signedKinds   = []Kind{Int8, Int16, Int32, Int64}
	unsignedKinds = []Kind{Uint8, Uint16, Uint32, Uint64}
	floatKinds    = []Kind{Float32, Float64}
)

// KindOfType maps a Go type onto its primitive Kind, or Invalid when the type
// is not a primitive.
func KindOfType(t reflect.Type) Kind {
	if t == nil {
		return Invalid
	}
	switch t {
	case timeType:
		return Time
	case uuidType:
		return GUID
	case bigType, bigPtrType:
		return BigInt
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Int:
		if bits.UintSize == 32 {
			return Int32
		}
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Uint, reflect.Uintptr:
		if bits.UintSize == 32 {
			return Uint32
		}
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.String:
		return String
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes
		}
	}
	return Invalid
}

// KindOf returns the Kind of v's dynamic type.
func KindOf(v any) Kind {
	return KindOfType(reflect.TypeOf(v))
}
