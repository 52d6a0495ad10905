package protocol

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageFormatting(t *testing.T) {
	e := NewError("eventstore.BeginWrite", CodeNotEnoughSpace, "")
	require.Equal(t, "ticos: eventstore.BeginWrite: not enough space", e.Error())

	e.Msg = "ring buffer full"
	require.Equal(t, "ticos: eventstore.BeginWrite: ring buffer full", e.Error())
}

func TestErrorMessageIncludesErrno(t *testing.T) {
	e := &Error{Op: "storage.Write", Code: CodeStorageFailure, Errno: syscall.ENOSPC}
	require.Contains(t, e.Error(), "errno=")
}

func TestErrorIsMatchesOnCodeAlone(t *testing.T) {
	e := NewError("coredump.Save", CodeStorageFailure, "disk full")
	require.True(t, errors.Is(e, &Error{Code: CodeStorageFailure}))
	require.False(t, errors.Is(e, &Error{Code: CodeStateError}))
}

func TestWrapErrorMapsErrno(t *testing.T) {
	wrapped := WrapError("storage.Read", CodeStorageFailure, syscall.EIO)

	var errno syscall.Errno
	require.True(t, errors.As(wrapped, &errno))
	require.Equal(t, syscall.EIO, errno)
	require.Equal(t, syscall.EIO, wrapped.Errno)
}

func TestWrapErrorNilIsNil(t *testing.T) {
	require.Nil(t, WrapError("op", CodeStateError, nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("logstore.Save", CodeInvalidArgument, "level out of range")
	require.True(t, IsCode(err, CodeInvalidArgument))
	require.False(t, IsCode(err, CodeTruncated))
	require.False(t, IsCode(errors.New("plain error"), CodeInvalidArgument))
}
