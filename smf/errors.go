package smf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a parse failed.
type ErrorKind int

const (
	TruncatedInput ErrorKind = iota + 1
	MalformedVarint
	InvalidFormat
	Unsupported
	ProtocolViolation
)

func (k ErrorKind) String() string {
	switch k {
	case TruncatedInput:
		return "truncated input"
	case MalformedVarint:
		return "malformed varint"
	case InvalidFormat:
		return "invalid format"
	case Unsupported:
		return "unsupported"
	case ProtocolViolation:
		return "protocol violation"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. A *ParseError matches the sentinel of its kind.
var (
	ErrTruncatedInput    = errors.New("smf: truncated input")
	ErrMalformedVarint   = errors.New("smf: malformed varint")
	ErrInvalidFormat     = errors.New("smf: invalid format")
	ErrUnsupported       = errors.New("smf: unsupported")
	ErrProtocolViolation = errors.New("smf: protocol violation")
)

var kindSentinels = map[ErrorKind]error{
	TruncatedInput:    ErrTruncatedInput,
	MalformedVarint:   ErrMalformedVarint,
	InvalidFormat:     ErrInvalidFormat,
	Unsupported:       ErrUnsupported,
	ProtocolViolation: ErrProtocolViolation,
}

// ParseError is the single error type returned by the decoder.
type ParseError struct {
	Kind   ErrorKind
	Offset int // byte offset of the cursor when the failure was detected
	Track  int // -1 while decoding the header
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Track >= 0 {
		return fmt.Sprintf("smf: %s at offset %d (track %d): %s", e.Kind, e.Offset, e.Track, e.Msg)
	}
	return fmt.Sprintf("smf: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Is reports whether target is the sentinel for e's kind.
func (e *ParseError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not a *ParseError.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func newError(kind ErrorKind, offset int, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:   kind,
		Offset: offset,
		Track:  -1,
		Msg:    fmt.Sprintf(format, args...),
	}
}
