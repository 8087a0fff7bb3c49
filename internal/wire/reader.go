package wire

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hengadev/hprose/internal/tags"
)

var (
	// ErrTruncated means the input ended in the middle of a value.
	ErrTruncated = errors.New("unexpected end of input")
	// ErrUnexpectedByte means a structural byte did not match the grammar.
	ErrUnexpectedByte = errors.New("unexpected byte")
	// ErrMalformedNumber means integer or float text could not be parsed.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrMalformedDate means date or time text could not be parsed.
	ErrMalformedDate = errors.New("malformed date")
)

// Reader scans hprose text from an in-memory buffer.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadByte consumes and returns the next byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrTruncated
	}
	return r.data[r.pos], nil
}

// Expect consumes the next byte and fails unless it equals b.
func (r *Reader) Expect(b byte) error {
	got, err := r.ReadByte()
	if err != nil {
		return err
	}
	if got != b {
		return fmt.Errorf("%w: expected %q at offset %d, got %q", ErrUnexpectedByte, b, r.pos-1, got)
	}
	return nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.pos
}

// Bytes returns the whole underlying buffer.
func (r *Reader) Bytes() []byte {
	return r.data
}

// ReadIntText scans an optional sign followed by decimal digits and stops at
// the first other byte without consuming it.
func (r *Reader) ReadIntText() ([]byte, error) {
	start := r.pos
	if r.pos < len(r.data) && (r.data[r.pos] == tags.Neg || r.data[r.pos] == tags.Pos) {
		r.pos++
	}
	digits := r.pos
	for r.pos < len(r.data) && tags.IsDigit(r.data[r.pos]) {
		r.pos++
	}
	if r.pos == digits {
		if r.pos >= len(r.data) {
			return nil, ErrTruncated
		}
		return nil, fmt.Errorf("%w: no digits at offset %d", ErrMalformedNumber, start)
	}
	return r.data[start:r.pos], nil
}

// ReadInt scans an integer like ReadIntText and parses it as int64.
func (r *Reader) ReadInt() (int64, error) {
	text, err := r.ReadIntText()
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
	}
	return i, nil
}

// ReadCount reads an optional non-negative decimal count. A missing count is
// zero. Counts larger than the remaining input are rejected since every
// counted item occupies at least one byte.
func (r *Reader) ReadCount() (int, error) {
	if r.pos >= len(r.data) {
		return 0, ErrTruncated
	}
	if !tags.IsDigit(r.data[r.pos]) {
		return 0, nil
	}
	n, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if n > int64(r.Remaining()) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining input", ErrTruncated, n)
	}
	return int(n), nil
}

// ReadUntil returns the bytes before the next occurrence of term and consumes
// the terminator.
func (r *Reader) ReadUntil(term byte) ([]byte, error) {
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == term {
			text := r.data[start:r.pos]
			r.pos++
			return text, nil
		}
		r.pos++
	}
	r.pos = start
	return nil, ErrTruncated
}

// ReadRaw consumes exactly n bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUTF16 consumes the UTF-8 bytes of n UTF-16 code units.
func (r *Reader) ReadUTF16(n int) (string, error) {
	start := r.pos
	units := 0
	for units < n {
		if r.pos >= len(r.data) {
			r.pos = start
			return "", ErrTruncated
		}
		c, size := utf8.DecodeRune(r.data[r.pos:])
		if c >= 0x10000 {
			units += 2
		} else {
			units++
		}
		r.pos += size
	}
	if units != n {
		return "", fmt.Errorf("%w: string length splits a surrogate pair", ErrUnexpectedByte)
	}
	return string(r.data[start:r.pos]), nil
}

// ReadStringPayload reads <utf16 length>"<utf8 bytes>".
func (r *Reader) ReadStringPayload() (string, error) {
	n, err := r.ReadCount()
	if err != nil {
		return "", err
	}
	if err := r.Expect(tags.Quote); err != nil {
		return "", err
	}
	s, err := r.ReadUTF16(n)
	if err != nil {
		return "", err
	}
	if err := r.Expect(tags.Quote); err != nil {
		return "", err
	}
	return s, nil
}

// ReadBytesPayload reads <len>"<raw bytes>" and returns a copy of the payload.
func (r *Reader) ReadBytesPayload() ([]byte, error) {
	n, err := r.ReadCount()
	if err != nil {
		return nil, err
	}
	if err := r.Expect(tags.Quote); err != nil {
		return nil, err
	}
	raw, err := r.ReadRaw(n)
	if err != nil {
		return nil, err
	}
	if err := r.Expect(tags.Quote); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, raw)
	return b, nil
}

// ReadGUID reads {xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}. The GUID tag has
// already been consumed.
func (r *Reader) ReadGUID() (uuid.UUID, error) {
	if err := r.Expect(tags.OpenBrace); err != nil {
		return uuid.Nil, err
	}
	raw, err := r.ReadRaw(36)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: guid %q: %v", ErrUnexpectedByte, raw, err)
	}
	if err := r.Expect(tags.CloseBrace); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ReadDateTime reads a value introduced by the Date tag, which has already
// been consumed.
func (r *Reader) ReadDateTime() (time.Time, error) {
	year, err := r.readFixed(4)
	if err != nil {
		return time.Time{}, err
	}
	month, err := r.readFixed(2)
	if err != nil {
		return time.Time{}, err
	}
	day, err := r.readFixed(2)
	if err != nil {
		return time.Time{}, err
	}
	b, err := r.ReadByte()
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, sec, nsec := 0, 0, 0, 0
	if b == tags.Time {
		if hour, minute, sec, nsec, err = r.readClock(); err != nil {
			return time.Time{}, err
		}
		if b, err = r.ReadByte(); err != nil {
			return time.Time{}, err
		}
	}
	loc, err := location(b)
	if err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrMalformedDate, year, month, day)
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, nsec, loc), nil
}

// ReadTime reads a value introduced by the Time tag, which has already been
// consumed. The date part is 1970-01-01.
func (r *Reader) ReadTime() (time.Time, error) {
	hour, minute, sec, nsec, err := r.readClock()
	if err != nil {
		return time.Time{}, err
	}
	b, err := r.ReadByte()
	if err != nil {
		return time.Time{}, err
	}
	loc, err := location(b)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(1970, time.January, 1, hour, minute, sec, nsec, loc), nil
}

func (r *Reader) readClock() (hour, minute, sec, nsec int, err error) {
	if hour, err = r.readFixed(2); err != nil {
		return
	}
	if minute, err = r.readFixed(2); err != nil {
		return
	}
	if sec, err = r.readFixed(2); err != nil {
		return
	}
	if hour > 23 || minute > 59 || sec > 59 {
		err = fmt.Errorf("%w: %02d:%02d:%02d", ErrMalformedDate, hour, minute, sec)
		return
	}
	if r.pos >= len(r.data) || r.data[r.pos] != tags.Point {
		return
	}
	r.pos++
	for digits := 0; digits < 9; digits += 3 {
		if digits > 0 && (r.pos >= len(r.data) || !tags.IsDigit(r.data[r.pos])) {
			for ; digits < 9; digits += 3 {
				nsec *= 1000
			}
			return
		}
		var part int
		if part, err = r.readFixed(3); err != nil {
			return
		}
		nsec = nsec*1000 + part
	}
	return
}

func (r *Reader) readFixed(width int) (int, error) {
	raw, err := r.ReadRaw(width)
	if err != nil {
		return 0, err
	}
	v := 0
	for _, c := range raw {
		if !tags.IsDigit(c) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

func location(b byte) (*time.Location, error) {
	switch b {
	case tags.UTC:
		return time.UTC, nil
	case tags.Semicolon:
		return time.Local, nil
	}
	return nil, fmt.Errorf("%w: %q is not a date terminator", ErrUnexpectedByte, b)
}
