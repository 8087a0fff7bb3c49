// Package accessor builds and caches the ordered list of named members that
// a struct type exposes to the codec.
//
// Members come from exported struct fields, from accessor method pairs
// (X() T with SetX(T) on the pointer receiver), or from both. Names are
// unified by lower-casing their first letter and are matched
// case-insensitively, so UserName, userName and USERNAME all bind to the
// same member.
package accessor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
	"unsafe"
)

// DataContract is embedded in a struct to restrict its members to the ones
// carrying an hprose annotation. Unexported annotated fields become eligible.
type DataContract struct{}

// PropertyTagger lets a type annotate its accessor properties the way struct
// tags annotate fields. Keys are Go property names (X for the pair X/SetX),
// values use the struct tag syntax: "name,order=N" or "-".
type PropertyTagger interface {
	PropertyTags() map[string]string
}

// TagName is the struct tag key read for member annotations.
const TagName = "hprose"

// Kind tells where a member's value lives.
type Kind int

const (
	Field Kind = iota
	Property
)

func (k Kind) String() string {
	if k == Property {
		return "property"
	}
	return "field"
}

// Member is one named, ordered slot of a struct type.
type Member struct {
	// Name is the unified wire name.
	Name string
	// GoName is the Go field or property name.
	GoName string
	Type   reflect.Type
	Order  int
	Kind   Kind

	index      []int
	unexported bool
	getter     int
	setter     int
}

// Get returns the member's value in record. record must be addressable when
// the member is a property or an unexported field.
func (m *Member) Get(record reflect.Value) reflect.Value {
	if m.Kind == Property {
		return record.Addr().Method(m.getter).Call(nil)[0]
	}
	f := record.FieldByIndex(m.index)
	if m.unexported {
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}
	return f
}

// Set stores v into record, which must be addressable.
func (m *Member) Set(record reflect.Value, v reflect.Value) {
	if m.Kind == Property {
		record.Addr().Method(m.setter).Call([]reflect.Value{v})
		return
	}
	m.Target(record).Set(v)
}

// Target returns a settable location for a field member so a decoder can fill
// it in place. It returns the zero Value for properties.
func (m *Member) Target(record reflect.Value) reflect.Value {
	if m.Kind == Property {
		return reflect.Value{}
	}
	f := record.FieldByIndex(m.index)
	if m.unexported || !f.CanSet() {
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}
	return f
}

// Members is the ordered member list of one struct type in one mode.
type Members struct {
	Type reflect.Type
	Mode Mode
	List []*Member
	// NeedsAddr is set when reading a member requires an addressable record.
	NeedsAddr bool

	index map[string]*Member
}

// Len returns the number of members.
func (ms *Members) Len() int {
	return len(ms.List)
}

// Lookup finds a member by wire name, ignoring case.
func (ms *Members) Lookup(name string) (*Member, bool) {
	m, ok := ms.index[strings.ToLower(name)]
	return m, ok
}

// Names returns the wire names in order.
func (ms *Members) Names() []string {
	names := make([]string, len(ms.List))
	for i, m := range ms.List {
		names[i] = m.Name
	}
	return names
}

// UnifiedName lower-cases the first letter of name.
func UnifiedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// annotation is a parsed member tag.
type annotation struct {
	present bool
	skip    bool
	name    string
	order   int
}

func parseAnnotation(tag string, ok bool) (annotation, error) {
	if !ok {
		return annotation{}, nil
	}
	a := annotation{present: true}
	tag = strings.TrimSpace(tag)
	if tag == "-" {
		a.skip = true
		return a, nil
	}
	parts := strings.Split(tag, ",")
	a.name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		key, value, found := strings.Cut(opt, "=")
		if !found || key != "order" {
			return annotation{}, fmt.Errorf("unsupported option %q in tag %q", opt, tag)
		}
		order, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return annotation{}, fmt.Errorf("order %q in tag %q is not an integer", value, tag)
		}
		a.order = order
	}
	return a, nil
}
