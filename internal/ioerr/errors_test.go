package ioerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrInvalid, ErrNotFound, ErrBadFormat, ErrBadKey, ErrVerifyFailed,
		ErrAuthenticationFailed, ErrIO, ErrMount, ErrBootenv, ErrUnsafePath,
		ErrAlreadyActive, ErrCancelled,
	}
	for _, err := range sentinels {
		require.Error(t, err)
		assert.NotEmpty(t, err.Error())
	}
}

func TestCryptoErrorUnwrap(t *testing.T) {
	wrapped := NewCryptoError("gcm-decrypt", ErrAuthenticationFailed)
	assert.True(t, errors.Is(wrapped, ErrAuthenticationFailed))
	assert.Contains(t, wrapped.Error(), "gcm-decrypt")
}

func TestFileErrorUnwrap(t *testing.T) {
	wrapped := NewFileError("open", "/tmp/image.bin", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "/tmp/image.bin")
}

func TestSlotErrorFormatting(t *testing.T) {
	err := NewSlotError("mount", "b", ErrMount)
	assert.Contains(t, err.Error(), "slot b")
	assert.True(t, errors.Is(err, ErrMount))
}

func TestPathErrorIsUnsafePath(t *testing.T) {
	err := NewPathError("../../etc/passwd")
	assert.True(t, errors.Is(err, ErrUnsafePath))
	assert.Contains(t, err.Error(), "../../etc/passwd")
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
}
