package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNegotiationFailed marks a peer whose transport reported failure.
	// The peer is removed from the active set; the UI is told via an
	// upward event, never a panic.
	ErrNegotiationFailed = errors.New("negotiation failed")

	// ErrRelayClosed means the relay connection dropped. Terminal for the
	// session: the user rejoins, there is no automatic reconnect.
	ErrRelayClosed = errors.New("relay connection closed")

	// ErrSessionClosed marks operations on a session that already left.
	ErrSessionClosed = errors.New("session closed")
)

// SessionError wraps a failure with the operation that produced it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
