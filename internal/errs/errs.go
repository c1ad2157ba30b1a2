// Package errs classifies failures surfaced by block storage and its
// collaborators so callers can decide whether to retry or report.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code int

const (
	Unknown Code = iota
	InvalidArgument
	Unavailable
	NotFound
	Conflict
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case Unavailable:
		return "UNAVAILABLE"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified error carrying the failed operation.
type Error struct {
	Op   string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "focusring error"
	}
	msg := e.Code.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: X})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Code == t.Code
}

// E builds a classified error. A nil err yields a message-less error.
func E(op string, code Code, err error) error {
	return &Error{Op: op, Code: code, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(op string, code Code, format string, args ...any) error {
	return &Error{Op: op, Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the code of the outermost classified error in err's
// chain, or Unknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
