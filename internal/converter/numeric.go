package converter

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

func overflow[T number](v any) error {
	var zero T
	return fmt.Errorf("%w: %v does not fit in %T", ErrOverflow, v, zero)
}

func signedOf[T constraints.Signed](i int64) (T, error) {
	t := T(i)
	if int64(t) != i {
		return 0, overflow[T](i)
	}
	return t, nil
}

func signedOfUnsigned[T constraints.Signed](u uint64) (T, error) {
	if u > math.MaxInt64 {
		return 0, overflow[T](u)
	}
	return signedOf[T](int64(u))
}

func signedOfFloat[T constraints.Signed](f float64) (T, error) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, overflow[T](f)
	}
	t, err := signedOf[T](int64(f))
	if err != nil {
		return 0, overflow[T](f)
	}
	return t, nil
}

func unsignedOf[T constraints.Unsigned](u uint64) (T, error) {
	t := T(u)
	if uint64(t) != u {
		return 0, overflow[T](u)
	}
	return t, nil
}

func unsignedOfSigned[T constraints.Unsigned](i int64) (T, error) {
	if i < 0 {
		return 0, overflow[T](i)
	}
	return unsignedOf[T](uint64(i))
}

func unsignedOfFloat[T constraints.Unsigned](f float64) (T, error) {
	f = math.Trunc(f)
	if math.IsNaN(f) || f < 0 || f >= math.MaxUint64 {
		return 0, overflow[T](f)
	}
	t, err := unsignedOf[T](uint64(f))
	if err != nil {
		return 0, overflow[T](f)
	}
	return t, nil
}

func floatOfSigned[T constraints.Float](i int64) (T, error) {
	return T(i), nil
}

func floatOfUnsigned[T constraints.Float](u uint64) (T, error) {
	return T(u), nil
}

func floatOf[T constraints.Float](f float64) (T, error) {
	return T(f), nil
}
