// Package hprose implements the hprose serialization format for Go values.
//
// hprose is a compact, text-tagged wire format. Every value starts with a
// single tag byte, containers carry their element counts, and repeated
// strings, slices, maps and struct pointers are written once and referred to
// by index afterwards, so shared and cyclic graphs survive a round trip.
//
// # Key Features
//
//   - Integers, floats, big integers, strings, bytes, GUIDs and date-times
//   - Slices, arrays, maps and range-over-func iterators
//   - Structs as classes, selected by field, property or member mode
//   - Back-references for shared values and cycles
//   - Lenient decoding with numeric, textual and temporal conversions
//   - An RPC frame codec in the rpc subpackage
//
// # Quick Start
//
// Encode and decode with the package-level functions:
//
//	type User struct {
//	    Name string
//	    Age  int
//	}
//
//	data, err := hprose.Serialize(User{Name: "Ann", Age: 30})
//	// c4"User"2{s4"name"s3"age"}o0{s3"Ann"i30;}
//
//	var u User
//	err = hprose.Deserialize(data, &u)
//
// A Codec validates its options once and can be shared between goroutines:
//
//	codec, err := hprose.NewCodec(
//	    hprose.WithMode(hprose.FieldMode),
//	    hprose.WithMaxDepth(64),
//	)
//
// # Members
//
// In MemberMode (the default) a struct contributes its X/SetX accessor pairs
// followed by its exported fields. FieldMode and PropertyMode restrict the
// choice to one kind. Field tags rename, order or exclude members:
//
//	type Point struct {
//	    X int `hprose:"x,order=1"`
//	    Y int `hprose:"y,order=2"`
//	    Z int `hprose:"-"`
//	}
//
// Embedding DataContract keeps only annotated members.
//
// # Classes
//
// Objects are tagged with their class name, which is the Go type name unless
// an alias is registered:
//
//	hprose.DefaultRegistry().Register(Point{}, "Point")
//
// Registered classes decode into their Go type even when the target is an
// untyped any. Unregistered ones decode into map[string]any.
//
// # References
//
// Writers keep a reference table by default. WithSimple(true) disables it,
// which is faster but only valid for graphs without sharing or cycles; a
// cyclic graph then fails with ErrMaxDepth. Readers always track references.
//
// # Streams
//
// Writer and Reader encode and decode several values in one stream sharing
// their reference and class tables. Reset clears the tables at a frame
// boundary.
//
// # Errors
//
// Errors wrap the sentinel values declared in this package and can be
// classified with IsProtocolError, IsTypeError, IsConfigurationError and
// IsUnsupportedTypeError.
package hprose
