package lingopipe

import "sync"

// recorder is the slice of CaptureEngine that push-to-talk needs.
type recorder interface {
	Start(sink FrameSink) error
	Stop()
}

// controlSender is the slice of Transport that push-to-talk needs.
type controlSender interface {
	SendControl(msg ControlMessage) error
	SendAudio(frame []byte)
}

// PushToTalk gates microphone capture to an explicit press/release window.
// The press is the gate: frames are forwarded unconditionally, with no VAD
// or barge-in filtering.
//
// Wire ordering is mandatory: input_audio.start is sent before the first
// frame of a press, and input_audio.stop only after capture has stopped and
// delivered its last frame.
type PushToTalk struct {
	rec recorder
	tx  controlSender
	log *Logger

	mu      sync.Mutex
	pressed bool
}

func NewPushToTalk(rec recorder, tx controlSender) *PushToTalk {
	return &PushToTalk{
		rec: rec,
		tx:  tx,
		log: GetGlobalLogger().WithComponent("ptt"),
	}
}

// PressStart begins a talk window. Repeated calls while pressed are no-ops.
func (p *PushToTalk) PressStart() error {
	p.mu.Lock()
	if p.pressed {
		p.mu.Unlock()
		return nil
	}
	p.pressed = true
	p.mu.Unlock()

	if err := p.tx.SendControl(ControlMessage{Type: TypeInputAudioStart}); err != nil {
		p.mu.Lock()
		p.pressed = false
		p.mu.Unlock()
		return err
	}

	if err := p.rec.Start(p.tx.SendAudio); err != nil {
		// roll back so the remote window is not left open
		if serr := p.tx.SendControl(ControlMessage{Type: TypeInputAudioStop}); serr != nil {
			p.log.LogSDKError(WrapError(serr, ErrCodeTransportClosed))
		}
		p.mu.Lock()
		p.pressed = false
		p.mu.Unlock()
		return err
	}

	p.log.Debug("press started")
	return nil
}

// PressEnd ends the talk window. Capture stops synchronously first, so the
// stop control message trails the last frame of the press.
func (p *PushToTalk) PressEnd() {
	p.mu.Lock()
	if !p.pressed {
		p.mu.Unlock()
		return
	}
	p.pressed = false
	p.mu.Unlock()

	p.rec.Stop()
	if err := p.tx.SendControl(ControlMessage{Type: TypeInputAudioStop}); err != nil {
		p.log.LogSDKError(WrapError(err, ErrCodeTransportClosed))
	}

	p.log.Debug("press ended")
}

// Pressed reports whether a talk window is open.
func (p *PushToTalk) Pressed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pressed
}
