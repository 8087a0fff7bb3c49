// Package converter adapts decoded primitive values to the primitive type a
// destination declares, for example an integer read from the wire into a
// float32 field or a string into a time.Time.
//
// Conversions are pure functions looked up by (source kind, target kind).
// Narrowing conversions are range checked; losing precision when rounding to
// a float is allowed.
package converter

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

var (
	// ErrTypeMismatch is returned when no conversion exists between two kinds
	// or the source value cannot be interpreted as the target kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrOverflow is returned when the target kind cannot hold the value.
	ErrOverflow = errors.New("value out of range")
)

// Func converts a value of its source kind into the canonical Go type of its
// target kind.
type Func func(v reflect.Value) (reflect.Value, error)

type pair struct {
	from, to Kind
}

// Registry is an immutable table of conversions.
type Registry struct {
	funcs map[pair]Func
}

// New returns a Registry holding every built-in conversion.
func New() *Registry {
	r := &Registry{funcs: make(map[pair]Func)}

	registerNumber(r, Int8, false, signedOf[int8], signedOfUnsigned[int8], signedOfFloat[int8])
	registerNumber(r, Int16, false, signedOf[int16], signedOfUnsigned[int16], signedOfFloat[int16])
	registerNumber(r, Int32, false, signedOf[int32], signedOfUnsigned[int32], signedOfFloat[int32])
	registerNumber(r, Int64, false, signedOf[int64], signedOfUnsigned[int64], signedOfFloat[int64])
	registerNumber(r, Uint8, false, unsignedOfSigned[uint8], unsignedOf[uint8], unsignedOfFloat[uint8])
	registerNumber(r, Uint16, false, unsignedOfSigned[uint16], unsignedOf[uint16], unsignedOfFloat[uint16])
	registerNumber(r, Uint32, false, unsignedOfSigned[uint32], unsignedOf[uint32], unsignedOfFloat[uint32])
	registerNumber(r, Uint64, false, unsignedOfSigned[uint64], unsignedOf[uint64], unsignedOfFloat[uint64])
	registerNumber(r, Float32, true, floatOfSigned[float32], floatOfUnsigned[float32], floatOf[float32])
	registerNumber(r, Float64, true, floatOfSigned[float64], floatOfUnsigned[float64], floatOf[float64])

	registerBool(r)
	registerString(r)
	registerBytes(r)
	registerTime(r)
	registerBigInt(r)
	registerGUID(r)
	return r
}

func (r *Registry) register(from, to Kind, f Func) {
	r.funcs[pair{from, to}] = f
}

// Lookup returns the conversion from one kind to another.
func (r *Registry) Lookup(from, to Kind) (Func, bool) {
	f, ok := r.funcs[pair{from, to}]
	return f, ok
}

// Convert adapts v to type to. Values whose kind already matches are
// converted directly.
func (r *Registry) Convert(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	from, target := KindOfType(v.Type()), KindOfType(to)
	if from == Invalid || target == Invalid {
		return reflect.Value{}, fmt.Errorf("%w: cannot convert %s to %s", ErrTypeMismatch, v.Type(), to)
	}
	if from == target {
		if from == BigInt {
			return fit(reflect.ValueOf(bigOf(v)), to), nil
		}
		if v.Type().ConvertibleTo(to) {
			return v.Convert(to), nil
		}
	}
	f, ok := r.Lookup(from, target)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: no conversion from %s to %s", ErrTypeMismatch, from, target)
	}
	out, err := f(v)
	if err != nil {
		return reflect.Value{}, err
	}
	return fit(out, to), nil
}

// fit converts a canonical result to the exact destination type, which may
// be a named type or a big.Int held by value.
func fit(v reflect.Value, to reflect.Type) reflect.Value {
	switch {
	case v.Type() == to:
		return v
	case v.Type() == bigPtrType && to == bigType:
		return v.Elem()
	}
	return v.Convert(to)
}

func mismatch(v reflect.Value, to Kind) error {
	return fmt.Errorf("%w: cannot interpret %v as %s", ErrTypeMismatch, v.Interface(), to)
}

func bigOf(v reflect.Value) *big.Int {
	if v.Type() == bigPtrType {
		if v.IsNil() {
			return new(big.Int)
		}
		return v.Interface().(*big.Int)
	}
	b := v.Interface().(big.Int)
	return new(big.Int).Set(&b)
}

func timeOf(v reflect.Value) time.Time {
	return v.Interface().(time.Time)
}

func registerNumber[T number](
	r *Registry,
	to Kind,
	fractional bool,
	ofInt func(int64) (T, error),
	ofUint func(uint64) (T, error),
	ofFloat func(float64) (T, error),
) {
	ok := func(x T, err error) (reflect.Value, error) {
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(x), nil
	}
	for _, from := range signedKinds {
		r.register(from, to, func(v reflect.Value) (reflect.Value, error) {
			return ok(ofInt(v.Int()))
		})
	}
	for _, from := range unsignedKinds {
		r.register(from, to, func(v reflect.Value) (reflect.Value, error) {
			return ok(ofUint(v.Uint()))
		})
	}
	for _, from := range floatKinds {
		r.register(from, to, func(v reflect.Value) (reflect.Value, error) {
			return ok(ofFloat(v.Float()))
		})
	}
	r.register(Bool, to, func(v reflect.Value) (reflect.Value, error) {
		if v.Bool() {
			return ok(ofInt(1))
		}
		return ok(ofInt(0))
	})
	r.register(String, to, func(v reflect.Value) (reflect.Value, error) {
		s := strings.TrimSpace(v.String())
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ok(ofInt(i))
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return ok(ofUint(u))
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return reflect.Value{}, mismatch(v, to)
		}
		return ok(ofFloat(f))
	})
	r.register(BigInt, to, func(v reflect.Value) (reflect.Value, error) {
		b := bigOf(v)
		switch {
		case b.IsInt64():
			return ok(ofInt(b.Int64()))
		case b.IsUint64():
			return ok(ofUint(b.Uint64()))
		}
		f, _ := new(big.Float).SetInt(b).Float64()
		return ok(ofFloat(f))
	})
	r.register(Time, to, func(v reflect.Value) (reflect.Value, error) {
		t := timeOf(v)
		if fractional {
			return ok(ofFloat(float64(t.Unix()) + float64(t.Nanosecond())/1e9))
		}
		return ok(ofInt(t.Unix()))
	})
}

func registerBool(r *Registry) {
	for _, from := range signedKinds {
		r.register(from, Bool, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(v.Int() != 0), nil
		})
	}
	for _, from := range unsignedKinds {
		r.register(from, Bool, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(v.Uint() != 0), nil
		})
	}
	for _, from := range floatKinds {
		r.register(from, Bool, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(v.Float() != 0), nil
		})
	}
	r.register(String, Bool, func(v reflect.Value) (reflect.Value, error) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.String()))
		if err != nil {
			return reflect.Value{}, mismatch(v, Bool)
		}
		return reflect.ValueOf(b), nil
	})
	r.register(BigInt, Bool, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(bigOf(v).Sign() != 0), nil
	})
}

func formatFloat[T constraints.Float](f float64) string {
	var zero T
	return strconv.FormatFloat(f, 'g', -1, int(reflect.TypeOf(zero).Size())*8)
}

func registerString(r *Registry) {
	for _, from := range signedKinds {
		r.register(from, String, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(strconv.FormatInt(v.Int(), 10)), nil
		})
	}
	for _, from := range unsignedKinds {
		r.register(from, String, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(strconv.FormatUint(v.Uint(), 10)), nil
		})
	}
	r.register(Float32, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(formatFloat[float32](v.Float())), nil
	})
	r.register(Float64, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(formatFloat[float64](v.Float())), nil
	})
	r.register(Bool, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(strconv.FormatBool(v.Bool())), nil
	})
	r.register(Bytes, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(string(v.Bytes())), nil
	})
	r.register(Time, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(timeOf(v).Format(time.RFC3339Nano)), nil
	})
	r.register(BigInt, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(bigOf(v).String()), nil
	})
	r.register(GUID, String, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(v.Interface().(uuid.UUID).String()), nil
	})
}

func registerBytes(r *Registry) {
	r.register(String, Bytes, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf([]byte(v.String())), nil
	})
	r.register(GUID, Bytes, func(v reflect.Value) (reflect.Value, error) {
		id := v.Interface().(uuid.UUID)
		return reflect.ValueOf(append([]byte(nil), id[:]...)), nil
	})
}

func registerTime(r *Registry) {
	for _, from := range signedKinds {
		r.register(from, Time, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(time.Unix(v.Int(), 0)), nil
		})
	}
	for _, from := range unsignedKinds {
		r.register(from, Time, func(v reflect.Value) (reflect.Value, error) {
			if v.Uint() > math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("%w: %d is not a valid unix time", ErrOverflow, v.Uint())
			}
			return reflect.ValueOf(time.Unix(int64(v.Uint()), 0)), nil
		})
	}
	for _, from := range floatKinds {
		r.register(from, Time, func(v reflect.Value) (reflect.Value, error) {
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("%w: %v is not a valid unix time", ErrOverflow, f)
			}
			sec, frac := math.Modf(f)
			return reflect.ValueOf(time.Unix(int64(sec), int64(frac*1e9))), nil
		})
	}
	r.register(String, Time, func(v reflect.Value) (reflect.Value, error) {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.String()))
		if err != nil {
			return reflect.Value{}, mismatch(v, Time)
		}
		return reflect.ValueOf(t), nil
	})
	r.register(BigInt, Time, func(v reflect.Value) (reflect.Value, error) {
		b := bigOf(v)
		if !b.IsInt64() {
			return reflect.Value{}, fmt.Errorf("%w: %s is not a valid unix time", ErrOverflow, b)
		}
		return reflect.ValueOf(time.Unix(b.Int64(), 0)), nil
	})
}

func registerBigInt(r *Registry) {
	for _, from := range signedKinds {
		r.register(from, BigInt, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(big.NewInt(v.Int())), nil
		})
	}
	for _, from := range unsignedKinds {
		r.register(from, BigInt, func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(new(big.Int).SetUint64(v.Uint())), nil
		})
	}
	for _, from := range floatKinds {
		r.register(from, BigInt, func(v reflect.Value) (reflect.Value, error) {
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return reflect.Value{}, fmt.Errorf("%w: %v has no integer value", ErrOverflow, f)
			}
			b, _ := big.NewFloat(f).Int(nil)
			return reflect.ValueOf(b), nil
		})
	}
	r.register(Bool, BigInt, func(v reflect.Value) (reflect.Value, error) {
		if v.Bool() {
			return reflect.ValueOf(big.NewInt(1)), nil
		}
		return reflect.ValueOf(new(big.Int)), nil
	})
	r.register(String, BigInt, func(v reflect.Value) (reflect.Value, error) {
		b, ok := new(big.Int).SetString(strings.TrimSpace(v.String()), 10)
		if !ok {
			return reflect.Value{}, mismatch(v, BigInt)
		}
		return reflect.ValueOf(b), nil
	})
	r.register(Time, BigInt, func(v reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(big.NewInt(timeOf(v).Unix())), nil
	})
}

func registerGUID(r *Registry) {
	r.register(String, GUID, func(v reflect.Value) (reflect.Value, error) {
		id, err := uuid.Parse(strings.TrimSpace(v.String()))
		if err != nil {
			return reflect.Value{}, mismatch(v, GUID)
		}
		return reflect.ValueOf(id), nil
	})
	r.register(Bytes, GUID, func(v reflect.Value) (reflect.Value, error) {
		id, err := uuid.FromBytes(v.Bytes())
		if err != nil {
			return reflect.Value{}, mismatch(v, GUID)
		}
		return reflect.ValueOf(id), nil
	})
}
