package protocol

import (
	"errors"
	"fmt"
	"syscall"
)

// Code is the high-level error taxonomy reported to Observer callbacks.
type Code string

const (
	CodeNotEnoughSpace    Code = "not enough space"
	CodeInvalidArgument   Code = "invalid argument"
	CodeStorageFailure    Code = "storage failure"
	CodeStateError        Code = "state error"
	CodeReadInconsistency Code = "read inconsistency"
	CodeTruncated         Code = "truncated"
)

// Error is a structured SDK error carrying the operation, error taxonomy
// code, an optional kernel errno (storage backends may be files), and a
// wrapped cause.
type Error struct {
	Op    string // operation that failed, e.g. "eventstore.BeginWrite"
	Code  Code
	Errno syscall.Errno // 0 if not applicable
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		if e.Errno != 0 {
			return fmt.Sprintf("ticos: %s: %s (errno=%d)", e.Op, msg, e.Errno)
		}
		return fmt.Sprintf("ticos: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("ticos: %s", msg)
}

// Unwrap supports errors.Is/errors.As over the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is lets errors.Is match on Code alone, so callers can write
// errors.Is(err, &Error{Code: CodeNotEnoughSpace}).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError constructs a structured error for the given operation.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error with SDK context, mapping syscall
// errnos to the taxonomy where recognizable.
func WrapError(op string, code Code, inner error) *Error {
	if inner == nil {
		return nil
	}
	e := &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
	var errno syscall.Errno
	if errors.As(inner, &errno) {
		e.Errno = errno
	}
	return e
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
