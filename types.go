package hprose

import "github.com/hengadev/hprose/internal/accessor"

// Mode selects which members of a struct take part in serialization.
type Mode = accessor.Mode

const (
	// MemberMode serializes accessor properties first, then fields whose
	// names are not taken yet. It is the default.
	MemberMode = accessor.MemberMode
	// FieldMode serializes exported struct fields.
	FieldMode = accessor.FieldMode
	// PropertyMode serializes X/SetX method pairs declared on the pointer type.
	PropertyMode = accessor.PropertyMode
)

// ParseMode maps "member", "field" or "property" to a Mode.
func ParseMode(s string) (Mode, error) {
	return accessor.ParseMode(s)
}

// DataContract is embedded in a struct to serialize only the members that
// carry an hprose annotation:
//
//	type Order struct {
//	    hprose.DataContract
//	    ID    int    `hprose:"id,order=1"`
//	    total int    `hprose:"total,order=2"` // unexported but annotated
//	    Cache []byte // not annotated, skipped
//	}
type DataContract = accessor.DataContract

// PropertyTagger annotates accessor properties. Keys are property names and
// values use the struct tag syntax "name,order=N" or "-".
type PropertyTagger = accessor.PropertyTagger

// Pair is one key/value element of an untyped sequence. A non-empty
// func(func(any) bool) that yields only Pairs is written as a map.
type Pair struct {
	Key   any
	Value any
}
