package accessor

import "fmt"

// Mode selects which members of a struct take part in serialization.
type Mode int

const (
	// MemberMode uses accessor properties first and fills remaining names with fields.
	MemberMode Mode = iota
	// FieldMode uses struct fields only.
	FieldMode
	// PropertyMode uses X/SetX method pairs only.
	PropertyMode
)

func (m Mode) String() string {
	switch m {
	case MemberMode:
		return "member"
	case FieldMode:
		return "field"
	case PropertyMode:
		return "property"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= MemberMode && m <= PropertyMode
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "member":
		return MemberMode, nil
	case "field":
		return FieldMode, nil
	case "property":
		return PropertyMode, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
