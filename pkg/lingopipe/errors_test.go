package lingopipe_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lingopipe/lingopipe-sdk-go/pkg/lingopipe"
)

func TestErrorFormatting(t *testing.T) {
	err := lingopipe.NewTransportError("connection lost").AddDetail("attempt", 3)

	msg := err.Error()
	if !strings.Contains(msg, "connection lost") {
		t.Errorf("message missing from %q", msg)
	}
	if !strings.Contains(msg, lingopipe.ErrCodeTransportClosed) {
		t.Errorf("code missing from %q", msg)
	}
	if !strings.Contains(msg, "attempt=3") {
		t.Errorf("detail missing from %q", msg)
	}
}

func TestErrorDetails(t *testing.T) {
	err := lingopipe.NewDeviceError("no microphone").AddDetail("device_id", 2)

	if v, ok := err.GetDetail("device_id"); !ok || v != 2 {
		t.Errorf("GetDetail(device_id) = %v, %v", v, ok)
	}
	if _, ok := err.GetDetail("missing"); ok {
		t.Error("GetDetail should report absence")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("broken pipe")
	wrapped := lingopipe.WrapError(cause, lingopipe.ErrCodeTransportClosed)

	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !lingopipe.IsErrorCode(wrapped, lingopipe.ErrCodeTransportClosed) {
		t.Errorf("code = %s", wrapped.Code)
	}
	if lingopipe.WrapError(nil, lingopipe.ErrCodeUnknown) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestIsErrorCode(t *testing.T) {
	if lingopipe.IsErrorCode(nil, lingopipe.ErrCodeUnknown) {
		t.Error("nil error matches no code")
	}
	err := lingopipe.NewProtocolError("bad frame")
	if !lingopipe.IsErrorCode(err, lingopipe.ErrCodeProtocol) {
		t.Error("IsErrorCode should match the error's code")
	}
	if lingopipe.IsErrorCode(err, lingopipe.ErrCodeRemote) {
		t.Error("IsErrorCode should reject other codes")
	}
}
