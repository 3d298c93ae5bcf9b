package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransError_Error(t *testing.T) {
	err := WrapError(errors.New("eof"), ErrFileRead, "failed to read").
		WithContext("file", "a.srt").
		WithContext("attempt", 2)

	assert.Equal(t, "[FileRead] failed to read | context: attempt=2, file=a.srt | cause: eof", err.Error())
	assert.Equal(t, "[Validation] bad input", NewError(ErrValidation, "bad input").Error())
}

func TestIsErrorType_FollowsCauses(t *testing.T) {
	inner := NewError(ErrRateLimit, "quota")
	outer := WrapError(inner, ErrBatchFatal, "batch 2 could not be completed")
	wrapped := fmt.Errorf("run: %w", outer)

	assert.True(t, IsErrorType(wrapped, ErrBatchFatal))
	assert.True(t, IsErrorType(wrapped, ErrRateLimit))
	assert.False(t, IsErrorType(wrapped, ErrRevision))
	assert.False(t, IsErrorType(errors.New("plain"), ErrUnknown))
	assert.False(t, IsErrorType(nil, ErrUnknown))
}

func TestTransError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(cause, ErrFileWrite, "failed to write")
	assert.ErrorIs(t, err, cause)
}

func TestDefaultErrorHandler(t *testing.T) {
	h := NewDefaultErrorHandler()

	assert.True(t, h.Handle(NewError(ErrBatchFatal, "stopped")))
	assert.False(t, h.Handle(errors.New("plain")))
	assert.Contains(t, h.GetAdvice(NewError(ErrBatchFatal, "x")), "resume")
	assert.Contains(t, h.GetAdvice(NewError(ErrUnknown, "x")), "review")

	joined := errors.Join(errors.New("a.srt: plain"), NewError(ErrFileRead, "b.srt unreadable"))
	assert.True(t, h.Handle(joined))
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "Decode", ErrDecode.String())
	assert.Equal(t, "MalformedCue", ErrMalformedCue.String())
	assert.Equal(t, "BatchFatal", ErrBatchFatal.String())
	assert.Equal(t, "Unknown", ErrorType(99).String())
}
