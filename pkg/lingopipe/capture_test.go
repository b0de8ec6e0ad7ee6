package lingopipe

import (
	"testing"
	"time"
)

func newTestEngine() *CaptureEngine {
	cfg := NewConfig()
	det := NewDetector(DetectorConfig{
		SpeakingThreshold: cfg.SpeakingThreshold,
		BargeInThreshold:  cfg.BargeInThreshold,
		SilenceHang:       cfg.SilenceHang,
	})
	return NewCaptureEngine(cfg, det)
}

func TestProcessBlockDeliversPCM16(t *testing.T) {
	e := newTestEngine()

	var frames [][]byte
	e.sink = func(frame []byte) { frames = append(frames, frame) }

	in := make([]float32, 4096)
	for i := range in {
		in[i] = 0.25
	}
	e.processBlock(in, time.Now())

	if len(frames) != 1 {
		t.Fatalf("sink received %d frames, want 1", len(frames))
	}
	if len(frames[0]) != 4096*2 {
		t.Errorf("frame is %d bytes, want %d", len(frames[0]), 4096*2)
	}

	decoded := DecodePCM16(frames[0])
	if diff := decoded[0] - 0.25; diff > 0.001 || diff < -0.001 {
		t.Errorf("decoded sample = %v, want about 0.25", decoded[0])
	}
}

func TestProcessBlockUpdatesDetectorAndStats(t *testing.T) {
	e := newTestEngine()
	e.sink = func([]byte) {}
	now := time.Now()

	loud := make([]float32, 4096)
	for i := range loud {
		loud[i] = 0.25
	}
	quiet := make([]float32, 4096)

	e.processBlock(loud, now)
	if !e.Speaking() {
		t.Error("loud block should flip speaking on")
	}
	if e.Amplitude() != 0.25 {
		t.Errorf("Amplitude = %v, want 0.25", e.Amplitude())
	}

	e.processBlock(quiet, now.Add(time.Second))
	e.processBlock(quiet, now.Add(2*time.Second))
	if e.Speaking() {
		t.Error("speaking should drop after sustained silence")
	}

	snap := e.Stats()
	if snap.Blocks != 3 {
		t.Errorf("Blocks = %d, want 3", snap.Blocks)
	}
	if snap.MaxAmplitude != 0.25 {
		t.Errorf("MaxAmplitude = %v, want 0.25", snap.MaxAmplitude)
	}
}

func TestStopReturnsWhileCallbacksArrive(t *testing.T) {
	e := newTestEngine()
	e.running = true
	e.sink = func([]byte) {}

	// the device keeps delivering blocks while Stop runs
	blocks := make(chan struct{})
	go func() {
		in := make([]float32, 256)
		for {
			select {
			case <-blocks:
				return
			default:
				e.processBlock(in, time.Now())
			}
		}
	}()
	defer close(blocks)

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while callbacks were arriving")
	}
	if e.Running() {
		t.Error("engine still reports running after Stop")
	}
}

func TestStopDropsTrailingCallback(t *testing.T) {
	e := newTestEngine()
	e.running = true

	delivered := 0
	e.sink = func([]byte) { delivered++ }

	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 0.25
	}
	e.processBlock(loud, time.Now())
	if !e.Speaking() {
		t.Fatal("loud block should flip speaking on")
	}
	e.Stop()

	// portaudio may deliver one last block during teardown
	e.processBlock(make([]float32, 64), time.Now())

	if delivered != 1 {
		t.Errorf("sink received %d frames, want 1 (none after Stop)", delivered)
	}
	if e.Speaking() {
		t.Error("Stop should reset the detector")
	}
}

func TestProcessBlockWithoutSink(t *testing.T) {
	e := newTestEngine()
	// no sink set: the block is still accounted, nothing panics
	e.processBlock(make([]float32, 64), time.Now())
	if e.Stats().Blocks != 1 {
		t.Error("block without a sink should still be recorded")
	}
}
