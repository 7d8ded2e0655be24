package event

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeProtocol indicates a malformed descriptor handshake. Fatal for
	// the session.
	ErrCodeProtocol ErrorCode = "PROTOCOL_ERROR"

	// ErrCodeDecode indicates an unknown type id or a truncated frame. Fatal
	// for the stream; already tracked events remain valid.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"

	// ErrCodeFatalDevice indicates the device reported a trace buffer
	// overflow. The session ends cleanly.
	ErrCodeFatalDevice ErrorCode = "FATAL_DEVICE_ERROR"

	// ErrCodeSync indicates two recordings could not be aligned. Fatal for
	// the merge only.
	ErrCodeSync ErrorCode = "SYNC_ERROR"
)

// Error is the pipeline error type.
type Error struct {
	Code    ErrorCode
	Message string

	// TypeID is the offending event type id, or -1 when not applicable.
	TypeID int

	// Offset is the stream byte offset of the offending frame, or -1.
	Offset int64

	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.TypeID >= 0 {
		msg += fmt.Sprintf(" (type_id=%d)", e.TypeID)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (offset=%d)", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewProtocolError reports a malformed descriptor line.
func NewProtocolError(line int, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeProtocol,
		Message: fmt.Sprintf("descriptor line %d: %s", line, message),
		TypeID:  -1,
		Offset:  -1,
		Err:     err,
	}
}

// NewDecodeError reports a frame that could not be decoded.
func NewDecodeError(typeID int, offset int64, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeDecode,
		Message: message,
		TypeID:  typeID,
		Offset:  offset,
		Err:     err,
	}
}

// NewFatalDeviceError reports a device side buffer overflow.
func NewFatalDeviceError(typeID int, offset int64) *Error {
	return &Error{
		Code:    ErrCodeFatalDevice,
		Message: "device trace buffer overflow, further events were not sent",
		TypeID:  typeID,
		Offset:  offset,
	}
}

// NewSyncError reports an impossible alignment.
func NewSyncError(message string) *Error {
	return &Error{
		Code:    ErrCodeSync,
		Message: message,
		TypeID:  -1,
		Offset:  -1,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsProtocolError returns true if err wraps a descriptor handshake error.
func IsProtocolError(err error) bool { return hasCode(err, ErrCodeProtocol) }

// IsDecodeError returns true if err wraps a frame decode error.
func IsDecodeError(err error) bool { return hasCode(err, ErrCodeDecode) }

// IsFatalDeviceError returns true if err wraps a device overflow report.
func IsFatalDeviceError(err error) bool { return hasCode(err, ErrCodeFatalDevice) }

// IsSyncError returns true if err wraps an alignment failure.
func IsSyncError(err error) bool { return hasCode(err, ErrCodeSync) }
