package refer

import (
	"errors"
	"fmt"
)

// ErrInvalidReference is returned for a back-reference to an index that has
// not been registered in the current scope.
var ErrInvalidReference = errors.New("invalid reference")

// ReaderRefer is the append-only arena of values materialized so far.
type ReaderRefer struct {
	refs []any
}

// NewReaderRefer returns an empty arena.
func NewReaderRefer() *ReaderRefer {
	return &ReaderRefer{}
}

// Add appends v and returns its index. Containers are added before their
// children are read so that nested back-references resolve.
func (r *ReaderRefer) Add(v any) int {
	r.refs = append(r.refs, v)
	return len(r.refs) - 1
}

// Set replaces the value registered at index i.
func (r *ReaderRefer) Set(i int, v any) {
	if i >= 0 && i < len(r.refs) {
		r.refs[i] = v
	}
}

// Read returns the value registered at index i.
func (r *ReaderRefer) Read(i int) (any, error) {
	if i < 0 || i >= len(r.refs) {
		return nil, fmt.Errorf("%w: index %d, %d registered", ErrInvalidReference, i, len(r.refs))
	}
	return r.refs[i], nil
}

// Len returns the number of registered values.
func (r *ReaderRefer) Len() int {
	return len(r.refs)
}

// Reset drops every registered value.
func (r *ReaderRefer) Reset() {
	clear(r.refs)
	r.refs = r.refs[:0]
}
