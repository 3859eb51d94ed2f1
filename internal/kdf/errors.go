package kdf

import (
	"errors"
	"fmt"
)

// Kind classifies a derivation failure.
type Kind uint8

const (
	// KindInvalidParameter reports malformed or out-of-range arguments.
	KindInvalidParameter Kind = iota + 1
	// KindResourceExhausted reports that the required memory could not be provided.
	// Callers may retry with smaller cost parameters.
	KindResourceExhausted
	// KindInternalFailure reports an unexpected fault in an underlying primitive.
	KindInternalFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "invalid parameter"
	case KindResourceExhausted:
		return "resource exhausted"
	case KindInternalFailure:
		return "internal failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidParameter  = &Error{Kind: KindInvalidParameter}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
	ErrInternalFailure   = &Error{Kind: KindInternalFailure}
)

// Error is the error type returned by every derivation entry point.
type Error struct {
	Kind Kind
	Op   string // "pbkdf2", "scrypt", "derive", ...
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func invalidParam(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParameter, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func exhausted(op, msg string, cause error) *Error {
	return &Error{Kind: KindResourceExhausted, Op: op, Msg: msg, Err: cause}
}

func internal(op, msg string, cause error) *Error {
	return &Error{Kind: KindInternalFailure, Op: op, Msg: msg, Err: cause}
}

// KindOf returns the Kind carried by err, or 0 if err is nil or not a derivation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Result codes for hosts that signal errors with integers.
const (
	StatusOK                = 0
	StatusInvalidParameter  = 1
	StatusResourceExhausted = 2
	StatusInternalFailure   = 3
)

// Status maps err onto a stable result code. Errors that did not come from
// this package are reported as internal failures.
func Status(err error) int {
	if err == nil {
		return StatusOK
	}
	switch KindOf(err) {
	case KindInvalidParameter:
		return StatusInvalidParameter
	case KindResourceExhausted:
		return StatusResourceExhausted
	default:
		return StatusInternalFailure
	}
}
