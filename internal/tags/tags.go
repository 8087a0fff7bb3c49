// Package tags defines the single-byte vocabulary of the hprose wire format.
//
// The values are fixed by the protocol and shared by every peer implementation.
package tags

// Serialize tags
const (
	Integer  byte = 'i'
	Long     byte = 'l'
	Double   byte = 'd'
	Null     byte = 'n'
	Empty    byte = 'e'
	True     byte = 't'
	False    byte = 'f'
	NaN      byte = 'N'
	Infinity byte = 'I'
	Date     byte = 'D'
	Time     byte = 'T'
	UTC      byte = 'Z'
	Bytes    byte = 'b'
	UTF8Char byte = 'u'
	String   byte = 's'
	GUID     byte = 'g'
	List     byte = 'a'
	Map      byte = 'm'
	Class    byte = 'c'
	Object   byte = 'o'
	Ref      byte = 'r'
)

// Special tags
const (
	Pos        byte = '+'
	Neg        byte = '-'
	Semicolon  byte = ';'
	OpenBrace  byte = '{'
	CloseBrace byte = '}'
	Quote      byte = '"'
	Point      byte = '.'
)

// Protocol tags
const (
	Header byte = 'H'
	Call   byte = 'C'
	Result byte = 'R'
	Error  byte = 'E'
	End    byte = 'z'
)

// IsDigit reports whether b is one of the single-digit integer tags.
func IsDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Name returns a readable name for a tag, used in error messages.
func Name(b byte) string {
	switch b {
	case Integer:
		return "integer"
	case Long:
		return "long"
	case Double:
		return "double"
	case Null:
		return "null"
	case Empty:
		return "empty"
	case True, False:
		return "bool"
	case NaN:
		return "nan"
	case Infinity:
		return "infinity"
	case Date:
		return "date"
	case Time:
		return "time"
	case Bytes:
		return "bytes"
	case UTF8Char:
		return "char"
	case String:
		return "string"
	case GUID:
		return "guid"
	case List:
		return "list"
	case Map:
		return "map"
	case Class:
		return "class"
	case Object:
		return "object"
	case Ref:
		return "reference"
	case Header:
		return "header"
	case Call:
		return "call"
	case Result:
		return "result"
	case Error:
		return "error"
	case End:
		return "end"
	}
	if IsDigit(b) {
		return "digit"
	}
	return "unknown"
}
