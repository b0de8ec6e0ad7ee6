package lingopipe

import (
	"fmt"
	"strings"
)

// Error codes as constants
const (
	ErrCodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	ErrCodeTransportClosed   = "TRANSPORT_CLOSED"
	ErrCodeProtocol          = "PROTOCOL_ERROR"
	ErrCodeRemote            = "REMOTE_ERROR"
	ErrCodePlayback          = "PLAYBACK_ERROR"
	ErrCodeCapture           = "CAPTURE_ERROR"
	ErrCodeConfigInvalid     = "CONFIG_INVALID"
	ErrCodeJSONParse         = "JSON_PARSE_ERROR"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeAPIRequest        = "API_REQUEST_FAILED"
	ErrCodeUnknown           = "UNKNOWN_ERROR"
)

// Error is the SDK error type: a message, a stable code, and optional
// free-form details.
type Error struct {
	Message string
	Code    string
	Details map[string]interface{}
	err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)", e.Message, e.Code))
	if len(e.Details) > 0 {
		sb.WriteString(":")
		for k, v := range e.Details {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.err
}

func NewError(message, code string) *Error {
	return &Error{Message: message, Code: code}
}

// AddDetail attaches a key/value to the error and returns it for chaining.
func (e *Error) AddDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) GetDetail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	value, exists := e.Details[key]
	return value, exists
}

// Specific error creators with common codes
func NewDeviceError(message string) *Error {
	return NewError(message, ErrCodeDeviceUnavailable)
}

func NewTransportError(message string) *Error {
	return NewError(message, ErrCodeTransportClosed)
}

func NewProtocolError(message string) *Error {
	return NewError(message, ErrCodeProtocol)
}

func NewRemoteError(message string) *Error {
	return NewError(message, ErrCodeRemote)
}

func NewPlaybackError(message string) *Error {
	return NewError(message, ErrCodePlayback)
}

func NewConfigError(message string) *Error {
	return NewError(message, ErrCodeConfigInvalid)
}

func NewAuthError(message string) *Error {
	return NewError(message, ErrCodeAuthFailed)
}

// WrapError wraps any error with a code; returns nil for nil.
func WrapError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: err.Error(), Code: code, err: err}
}

func IsErrorCode(err *Error, code string) bool {
	if err == nil {
		return false
	}
	return err.Code == code
}

// IsRetryable reports whether a caller is expected to recover by retrying.
// Device acquisition failures are retryable by the user (new device,
// permission granted); transport closures retry automatically.
func IsRetryable(err *Error) bool {
	if err == nil {
		return false
	}
	switch err.Code {
	case ErrCodeDeviceUnavailable, ErrCodeTransportClosed, ErrCodeAPIRequest:
		return true
	}
	return false
}
