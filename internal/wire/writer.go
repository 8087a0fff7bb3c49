// Package wire implements the text-level primitives of the hprose grammar:
// decimal integers, counts, quoted payloads, guid and date/time text.
//
// Writers append to a bytes.Buffer. The Reader scans an in-memory slice and
// never looks past the end of it.
package wire

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hengadev/hprose/internal/tags"
)

// ErrDateOutOfRange is returned for dates whose year does not fit in four digits.
var ErrDateOutOfRange = errors.New("date out of range")

// WriteInt writes the decimal text of i with no tag and no terminator.
func WriteInt(buf *bytes.Buffer, i int64) {
	var scratch [20]byte
	buf.Write(strconv.AppendInt(scratch[:0], i, 10))
}

// WriteUint writes the decimal text of u with no tag and no terminator.
func WriteUint(buf *bytes.Buffer, u uint64) {
	var scratch [20]byte
	buf.Write(strconv.AppendUint(scratch[:0], u, 10))
}

// WriteCount writes n as decimal text, or nothing when n is zero.
func WriteCount(buf *bytes.Buffer, n int) {
	if n > 0 {
		WriteInt(buf, int64(n))
	}
}

// WriteFloat writes the shortest decimal text that round-trips f at bitSize.
// NaN and infinities are not representable as text; callers tag them.
func WriteFloat(buf *bytes.Buffer, f float64, bitSize int) {
	var scratch [32]byte
	buf.Write(strconv.AppendFloat(scratch[:0], f, 'g', -1, bitSize))
}

// WriteDouble writes a complete double value including its tag.
func WriteDouble(buf *bytes.Buffer, f float64, bitSize int) {
	switch {
	case math.IsNaN(f):
		buf.WriteByte(tags.NaN)
	case math.IsInf(f, 1):
		buf.WriteByte(tags.Infinity)
		buf.WriteByte(tags.Pos)
	case math.IsInf(f, -1):
		buf.WriteByte(tags.Infinity)
		buf.WriteByte(tags.Neg)
	default:
		buf.WriteByte(tags.Double)
		WriteFloat(buf, f, bitSize)
		buf.WriteByte(tags.Semicolon)
	}
}

// WriteInteger writes a complete signed integer value including its tag.
func WriteInteger(buf *bytes.Buffer, i int64) {
	switch {
	case i >= 0 && i <= 9:
		buf.WriteByte(byte('0' + i))
	case i >= math.MinInt32 && i <= math.MaxInt32:
		buf.WriteByte(tags.Integer)
		WriteInt(buf, i)
		buf.WriteByte(tags.Semicolon)
	default:
		buf.WriteByte(tags.Long)
		WriteInt(buf, i)
		buf.WriteByte(tags.Semicolon)
	}
}

// WriteUnsigned writes a complete unsigned integer value including its tag.
func WriteUnsigned(buf *bytes.Buffer, u uint64) {
	if u <= math.MaxInt32 {
		WriteInteger(buf, int64(u))
		return
	}
	buf.WriteByte(tags.Long)
	WriteUint(buf, u)
	buf.WriteByte(tags.Semicolon)
}

// UTF16Length returns the number of UTF-16 code units needed for s.
// Peers count string lengths in UTF-16 units, not bytes.
func UTF16Length(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// WriteStringPayload writes <utf16 length>"<utf8 bytes>".
func WriteStringPayload(buf *bytes.Buffer, s string, length int) {
	WriteCount(buf, length)
	buf.WriteByte(tags.Quote)
	buf.WriteString(s)
	buf.WriteByte(tags.Quote)
}

// WriteBytesPayload writes <len>"<raw bytes>".
func WriteBytesPayload(buf *bytes.Buffer, b []byte) {
	WriteCount(buf, len(b))
	buf.WriteByte(tags.Quote)
	buf.Write(b)
	buf.WriteByte(tags.Quote)
}

// WriteGUID writes g{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}.
func WriteGUID(buf *bytes.Buffer, id uuid.UUID) {
	buf.WriteByte(tags.GUID)
	buf.WriteByte(tags.OpenBrace)
	buf.WriteString(id.String())
	buf.WriteByte(tags.CloseBrace)
}

// WriteDateTime writes a complete date/time value including its tag and
// terminator. Times outside UTC and Local are converted to UTC first.
func WriteDateTime(buf *bytes.Buffer, t time.Time) error {
	loc := t.Location()
	if loc != time.UTC && loc != time.Local {
		t = t.UTC()
		loc = time.UTC
	}
	year, month, day := t.Date()
	if year < 0 || year > 9999 {
		return ErrDateOutOfRange
	}
	hour, minute, sec := t.Clock()
	nsec := t.Nanosecond()

	switch {
	case hour == 0 && minute == 0 && sec == 0 && nsec == 0:
		writeDate(buf, year, int(month), day)
	case year == 1970 && month == time.January && day == 1:
		writeClock(buf, hour, minute, sec, nsec)
	default:
		writeDate(buf, year, int(month), day)
		writeClock(buf, hour, minute, sec, nsec)
	}
	if loc == time.UTC {
		buf.WriteByte(tags.UTC)
	} else {
		buf.WriteByte(tags.Semicolon)
	}
	return nil
}

func writeDate(buf *bytes.Buffer, year, month, day int) {
	buf.WriteByte(tags.Date)
	writePadded(buf, year, 4)
	writePadded(buf, month, 2)
	writePadded(buf, day, 2)
}

func writeClock(buf *bytes.Buffer, hour, minute, sec, nsec int) {
	buf.WriteByte(tags.Time)
	writePadded(buf, hour, 2)
	writePadded(buf, minute, 2)
	writePadded(buf, sec, 2)
	if nsec == 0 {
		return
	}
	buf.WriteByte(tags.Point)
	switch {
	case nsec%1000000 == 0:
		writePadded(buf, nsec/1000000, 3)
	case nsec%1000 == 0:
		writePadded(buf, nsec/1000, 6)
	default:
		writePadded(buf, nsec, 9)
	}
}

func writePadded(buf *bytes.Buffer, v, width int) {
	var scratch [9]byte
	for i := width - 1; i >= 0; i-- {
		scratch[i] = byte('0' + v%10)
		v /= 10
	}
	buf.Write(scratch[:width])
}

// IsSingleChar reports whether s is exactly one UTF-16 code unit long, which
// the grammar encodes with the UTF8Char tag instead of a quoted string.
func IsSingleChar(s string) bool {
	if s == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && r < 0x10000
}
