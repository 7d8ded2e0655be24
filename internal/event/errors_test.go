package event

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewDecodeError(4, 120, "truncated frame", io.ErrUnexpectedEOF)
	assert.Equal(t, "DECODE_ERROR: truncated frame (type_id=4) (offset=120): unexpected EOF", err.Error())

	err = NewSyncError("no sync events")
	assert.Equal(t, "SYNC_ERROR: no sync events", err.Error())
}

func TestError_Predicates(t *testing.T) {
	wrapped := fmt.Errorf("session: %w", NewFatalDeviceError(0, 42))

	assert.True(t, IsFatalDeviceError(wrapped))
	assert.False(t, IsDecodeError(wrapped))
	assert.False(t, IsProtocolError(wrapped))
	assert.False(t, IsSyncError(wrapped))

	assert.True(t, IsProtocolError(NewProtocolError(2, "odd field count", nil)))
	assert.True(t, IsSyncError(NewSyncError("x")))
	assert.False(t, IsSyncError(errors.New("plain")))
}

func TestError_Unwrap(t *testing.T) {
	err := NewDecodeError(-1, 0, "read", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
