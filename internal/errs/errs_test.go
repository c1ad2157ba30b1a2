package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := E("set block", Unavailable, io.ErrUnexpectedEOF)
	assert.Equal(t, "set block: unexpected EOF", err.Error())

	bare := E("", NotFound, nil)
	assert.Equal(t, "NOT_FOUND", bare.Error())
}

func TestCodeOfWrapped(t *testing.T) {
	inner := Errorf("get day", InvalidArgument, "bad date %q", "x")
	wrapped := fmt.Errorf("reload: %w", inner)

	assert.Equal(t, InvalidArgument, CodeOf(wrapped))
	assert.True(t, Is(wrapped, InvalidArgument))
	assert.False(t, Is(wrapped, Unavailable))
	assert.True(t, errors.Is(wrapped, &Error{Code: InvalidArgument}))
	assert.Equal(t, Unknown, CodeOf(io.EOF))
	assert.False(t, Is(nil, Unknown))
}

func TestUnwrapReachesCause(t *testing.T) {
	err := E("load", Unavailable, io.EOF)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "CONFLICT", Conflict.String())
	assert.Equal(t, "UNKNOWN", Code(99).String())
}
