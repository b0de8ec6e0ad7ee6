package lingopipe

import (
	"errors"
	"testing"
)

// fakeRecorder emits a fixed frame through the sink on Start and records
// the order of lifecycle events against the shared log.
type fakeRecorder struct {
	events   *[]string
	frame    []byte
	startErr error
	sink     FrameSink
}

func (r *fakeRecorder) Start(sink FrameSink) error {
	if r.startErr != nil {
		return r.startErr
	}
	*r.events = append(*r.events, "rec.start")
	r.sink = sink
	if r.frame != nil {
		sink(r.frame)
	}
	return nil
}

func (r *fakeRecorder) Stop() {
	*r.events = append(*r.events, "rec.stop")
}

type fakeSender struct {
	events     *[]string
	controlErr error
}

func (s *fakeSender) SendControl(msg ControlMessage) error {
	if s.controlErr != nil {
		return s.controlErr
	}
	*s.events = append(*s.events, "ctl:"+msg.Type)
	return nil
}

func (s *fakeSender) SendAudio(frame []byte) {
	*s.events = append(*s.events, "audio")
}

func TestPushToTalkWireOrder(t *testing.T) {
	var events []string
	rec := &fakeRecorder{events: &events, frame: []byte{0, 0}}
	tx := &fakeSender{events: &events}
	ptt := NewPushToTalk(rec, tx)

	if err := ptt.PressStart(); err != nil {
		t.Fatalf("PressStart failed: %v", err)
	}
	if !ptt.Pressed() {
		t.Error("Pressed should be true after PressStart")
	}
	ptt.PressEnd()
	if ptt.Pressed() {
		t.Error("Pressed should be false after PressEnd")
	}

	want := []string{
		"ctl:" + TypeInputAudioStart,
		"rec.start",
		"audio",
		"rec.stop",
		"ctl:" + TypeInputAudioStop,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestPushToTalkPressStartIdempotent(t *testing.T) {
	var events []string
	rec := &fakeRecorder{events: &events}
	tx := &fakeSender{events: &events}
	ptt := NewPushToTalk(rec, tx)

	ptt.PressStart()
	before := len(events)
	ptt.PressStart()
	if len(events) != before {
		t.Errorf("second PressStart produced events: %v", events[before:])
	}
}

func TestPushToTalkPressEndWithoutPress(t *testing.T) {
	var events []string
	rec := &fakeRecorder{events: &events}
	tx := &fakeSender{events: &events}
	ptt := NewPushToTalk(rec, tx)

	ptt.PressEnd()
	if len(events) != 0 {
		t.Errorf("PressEnd without a press produced events: %v", events)
	}
}

func TestPushToTalkRollsBackOnCaptureFailure(t *testing.T) {
	var events []string
	rec := &fakeRecorder{events: &events, startErr: errors.New("device busy")}
	tx := &fakeSender{events: &events}
	ptt := NewPushToTalk(rec, tx)

	if err := ptt.PressStart(); err == nil {
		t.Fatal("PressStart should propagate the capture failure")
	}
	if ptt.Pressed() {
		t.Error("Pressed should be false after a failed press")
	}

	// the remote window opened by input_audio.start must be closed again
	want := []string{"ctl:" + TypeInputAudioStart, "ctl:" + TypeInputAudioStop}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestPushToTalkControlFailureStopsPress(t *testing.T) {
	var events []string
	rec := &fakeRecorder{events: &events}
	tx := &fakeSender{events: &events, controlErr: NewTransportError("not connected")}
	ptt := NewPushToTalk(rec, tx)

	if err := ptt.PressStart(); err == nil {
		t.Fatal("PressStart should fail when the start control cannot be sent")
	}
	if ptt.Pressed() {
		t.Error("Pressed should be false when the press never opened")
	}
	for _, ev := range events {
		if ev == "rec.start" {
			t.Error("capture must not start when the control send failed")
		}
	}
}
