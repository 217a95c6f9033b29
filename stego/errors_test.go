package stego

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Kind:   KindIO,
		Op:     "read carrier",
		Detail: "short read",
		Cause:  io.ErrUnexpectedEOF,
	}
	msg := err.Error()
	for _, s := range []string{"io", "read carrier", "short read", "caused by", "unexpected EOF"} {
		assert.Contains(t, msg, s)
	}

	assert.Equal(t, "empty_secret", (&Error{Kind: KindEmptySecret}).Error())
}

func TestError_IsAndUnwrap(t *testing.T) {
	err := ioError("write output", io.ErrShortWrite)
	wrapped := fmt.Errorf("encode: %w", err)

	assert.ErrorIs(t, wrapped, ErrIO)
	assert.ErrorIs(t, wrapped, io.ErrShortWrite)
	assert.NotErrorIs(t, wrapped, ErrSignatureMismatch)
	assert.Equal(t, KindIO, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrInputValidation, 2},
		{ErrIO, 3},
		{ErrInsufficientCapacity, 4},
		{ErrEmptySecret, 5},
		{ErrSignatureMismatch, 6},
		{errors.New("other"), 1},
	}

	seen := map[int]bool{}
	for _, tt := range tests {
		got := ExitCode(tt.err)
		assert.Equal(t, tt.want, got, "%v", tt.err)
		if tt.err != nil {
			assert.NotZero(t, got)
		}
		seen[got] = true
	}
	assert.Len(t, seen, len(tests))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "idle", EncodeIdle.String())
	assert.Equal(t, "tail_copied", EncodeTailCopied.String())
	assert.Equal(t, "failed", EncodeFailed.String())
	assert.Equal(t, "unknown", EncodeState(99).String())

	assert.Equal(t, "signature_verified", DecodeSignatureVerified.String())
	assert.Equal(t, "content_written", DecodeContentWritten.String())
	assert.Equal(t, "unknown", DecodeState(-1).String())
}
