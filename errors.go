package hprose

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/hengadev/hprose/internal/accessor"
	"github.com/hengadev/hprose/internal/converter"
	"github.com/hengadev/hprose/internal/refer"
	"github.com/hengadev/hprose/internal/tags"
	"github.com/hengadev/hprose/internal/wire"
)

var (
	// Protocol errors
	ErrTruncated        = wire.ErrTruncated
	ErrUnexpectedByte   = wire.ErrUnexpectedByte
	ErrMalformedNumber  = wire.ErrMalformedNumber
	ErrMalformedDate    = wire.ErrMalformedDate
	ErrInvalidReference = refer.ErrInvalidReference
	ErrUnexpectedTag    = errors.New("unexpected tag")
	ErrMaxDepth         = errors.New("maximum nesting depth exceeded")

	// Type errors
	ErrTypeMismatch = converter.ErrTypeMismatch
	ErrOverflow     = converter.ErrOverflow

	// Encode errors
	ErrUnsupportedType = errors.New("unsupported type")
	ErrDateOutOfRange  = wire.ErrDateOutOfRange

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidMember        = accessor.ErrInvalidMember

	// Caller errors
	ErrInvalidTarget = errors.New("invalid deserialization target")
)

func NewUnexpectedTagError(tag byte, expected string) error {
	return fmt.Errorf("%w: %q (%s) where %s was expected", ErrUnexpectedTag, tag, tags.Name(tag), expected)
}

func NewTypeMismatchError(tag byte, target reflect.Type) error {
	return fmt.Errorf("%w: cannot decode %s into %s", ErrTypeMismatch, tags.Name(tag), target)
}

func NewUnsupportedTypeError(t reflect.Type) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func NewInvalidTargetError(target any) error {
	return fmt.Errorf("%w: expected a non-nil pointer, got %T", ErrInvalidTarget, target)
}

// IsProtocolError returns true if the error means the input is not a valid
// hprose stream. The whole message must be rejected.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrUnexpectedByte) ||
		errors.Is(err, ErrMalformedNumber) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrUnexpectedTag) ||
		errors.Is(err, ErrMaxDepth)
}

// IsTypeError returns true if a well-formed value could not be stored in the
// requested destination type.
func IsTypeError(err error) bool {
	return errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrOverflow)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidMember)
}

// IsUnsupportedTypeError returns true if a Go value has no hprose encoding.
func IsUnsupportedTypeError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrDateOutOfRange)
}
