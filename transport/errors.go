package transport

import (
	"errors"
	"fmt"
)

// Delivery errors.
var (
	// ErrClosed indicates the transport was closed.
	ErrClosed = errors.New("transport: closed")

	// ErrUnknownParty indicates a sender or recipient outside the session.
	ErrUnknownParty = errors.New("transport: unknown party")

	// ErrDuplicateMessage indicates a second payload for the same
	// phase, sender and recipient.
	ErrDuplicateMessage = errors.New("transport: duplicate message")

	// ErrTimeout indicates a collector gave up before enough payloads arrived.
	ErrTimeout = errors.New("transport: timeout")

	// ErrInvalidMessage indicates an envelope that does not belong here.
	ErrInvalidMessage = errors.New("transport: invalid message")

	// ErrInvalidConfig indicates the transport configuration is invalid.
	ErrInvalidConfig = errors.New("transport: invalid configuration")

	// ErrUnsupportedCodec indicates an unknown serializer codec.
	ErrUnsupportedCodec = errors.New("transport: unsupported codec")
)

// ParticipantError wraps errors specific to a participant.
type ParticipantError struct {
	Party PartyID
	Err   error
}

func (e *ParticipantError) Error() string {
	return fmt.Sprintf("transport: participant %d: %v", e.Party, e.Err)
}

func (e *ParticipantError) Unwrap() error {
	return e.Err
}

// SessionError wraps errors for a whole session.
type SessionError struct {
	SessionID string
	Phase     Phase
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("transport: session %s phase %s: %v", e.SessionID, e.Phase, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// CollectError reports a barrier that did not fill. Received counts
// the payloads that did arrive.
type CollectError struct {
	Phase    Phase
	To       PartyID
	Expected int
	Received int
	Err      error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("transport: party %d phase %s: received %d of %d: %v",
		e.To, e.Phase, e.Received, e.Expected, e.Err)
}

func (e *CollectError) Unwrap() error {
	return e.Err
}

// SerializerError wraps codec failures.
type SerializerError struct {
	Operation string
	CodecType string
	Err       error
}

func (e *SerializerError) Error() string {
	return fmt.Sprintf("serializer: %s failed for codec %s: %v", e.Operation, e.CodecType, e.Err)
}

func (e *SerializerError) Unwrap() error {
	return e.Err
}
