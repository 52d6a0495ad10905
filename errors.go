package ticos

import "github.com/ticos-sdk/go-ticos/internal/protocol"

// Code is the high-level error taxonomy reported to Observer callbacks.
// Re-exported from internal/protocol so internal components can
// construct/compare errors without importing this root package (see
// internal/protocol's doc comment).
type Code = protocol.Code

const (
	CodeNotEnoughSpace    = protocol.CodeNotEnoughSpace
	CodeInvalidArgument   = protocol.CodeInvalidArgument
	CodeStorageFailure    = protocol.CodeStorageFailure
	CodeStateError        = protocol.CodeStateError
	CodeReadInconsistency = protocol.CodeReadInconsistency
	CodeTruncated         = protocol.CodeTruncated
)

// Error is a structured SDK error carrying the operation, error taxonomy
// code, an optional kernel errno, and a wrapped cause.
type Error = protocol.Error

// NewError constructs a structured error for the given operation.
func NewError(op string, code Code, msg string) *Error {
	return protocol.NewError(op, code, msg)
}

// WrapError wraps an existing error with SDK context, mapping syscall
// errnos to the taxonomy where recognizable.
func WrapError(op string, code Code, inner error) *Error {
	return protocol.WrapError(op, code, inner)
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code Code) bool {
	return protocol.IsCode(err, code)
}
