package rpc

import (
	"errors"
)

var (
	ErrRequestTooLarge = errors.New("request entity too large")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrMethodPanicked  = errors.New("method panicked")
)

// RemoteError is an application error carried in-band by an error frame.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsRemoteError returns true if err came from the peer's error frame rather
// than from transport or framing.
func IsRemoteError(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}
