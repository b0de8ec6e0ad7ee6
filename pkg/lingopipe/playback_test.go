package lingopipe

import (
	"testing"
	"time"
)

// fakePlayer captures the pull callback so tests can drive the device
// callback by hand.
type fakePlayer struct {
	pull    func([]float32)
	started int
	stopped int
	failOn  error
}

func (f *fakePlayer) start(sampleRate, channels, bufferSize int, pull func([]float32)) error {
	if f.failOn != nil {
		return f.failOn
	}
	f.pull = pull
	f.started++
	return nil
}

func (f *fakePlayer) stop() error {
	f.stopped++
	return nil
}

func newTestQueue(cooldown time.Duration) (*PlaybackQueue, *fakePlayer) {
	p := &fakePlayer{}
	return newPlaybackQueue(24000, 1, cooldown, p), p
}

func TestPlaybackEnqueueStartsDevice(t *testing.T) {
	q, p := newTestQueue(time.Hour)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5, 0.5}))
	if p.started != 1 {
		t.Fatalf("device started %d times, want 1", p.started)
	}
	if !q.IsPlaying() {
		t.Error("queue should report playing after enqueue")
	}

	// second enqueue reuses the stream
	q.Enqueue(EncodePCM16([]float32{0.5}))
	if p.started != 1 {
		t.Errorf("device started %d times after second enqueue, want 1", p.started)
	}
}

func TestPlaybackGaplessAdvance(t *testing.T) {
	q, p := newTestQueue(time.Hour)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5, 0.5}))
	q.Enqueue(EncodePCM16([]float32{-0.5, -0.5}))

	out := make([]float32, 4)
	p.pull(out)

	// both buffers fill one callback with no gap between them
	for i, want := range []float32{0.5, 0.5, -0.5, -0.5} {
		if diff := out[i] - want; diff > 0.001 || diff < -0.001 {
			t.Errorf("out[%d] = %v, want about %v", i, out[i], want)
		}
	}
	if q.QueuedBuffers() != 0 {
		t.Errorf("QueuedBuffers = %d, want 0", q.QueuedBuffers())
	}
}

func TestPlaybackPadsSilenceWhenDrained(t *testing.T) {
	q, p := newTestQueue(time.Hour)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5}))

	out := []float32{9, 9, 9, 9}
	p.pull(out)
	for i := 1; i < len(out); i++ {
		if out[i] != 0 {
			t.Errorf("out[%d] = %v, want silence", i, out[i])
		}
	}
}

func TestPlaybackCooldownHoldsPlayingFlag(t *testing.T) {
	q, p := newTestQueue(30 * time.Millisecond)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5}))
	p.pull(make([]float32, 4))

	if !q.IsPlaying() {
		t.Fatal("queue should still report playing inside the cooldown")
	}

	deadline := time.Now().Add(time.Second)
	for q.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("playing flag never dropped after the cooldown")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPlaybackEnqueueDuringCooldownCancelsIt(t *testing.T) {
	q, p := newTestQueue(30 * time.Millisecond)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5}))
	p.pull(make([]float32, 4))

	// new audio arrives inside the cooldown window
	q.Enqueue(EncodePCM16([]float32{0.5}))
	time.Sleep(60 * time.Millisecond)
	if !q.IsPlaying() {
		t.Error("enqueue during cooldown should keep the queue playing")
	}
}

func TestPlaybackClearAll(t *testing.T) {
	q, p := newTestQueue(time.Hour)
	defer q.Close()

	q.Enqueue(EncodePCM16([]float32{0.5, 0.5}))
	q.Enqueue(EncodePCM16([]float32{0.5, 0.5}))
	q.ClearAll()

	if q.IsPlaying() {
		t.Error("queue should be idle immediately after ClearAll")
	}
	if q.QueuedBuffers() != 0 {
		t.Errorf("QueuedBuffers = %d after ClearAll, want 0", q.QueuedBuffers())
	}

	out := []float32{9, 9}
	p.pull(out)
	if out[0] != 0 || out[1] != 0 {
		t.Error("callback after ClearAll should emit silence")
	}

	// idempotent
	q.ClearAll()
}

func TestPlaybackDiscardsMalformedBuffers(t *testing.T) {
	q, _ := newTestQueue(time.Hour)
	defer q.Close()

	q.Enqueue(nil)
	q.Enqueue([]byte{0x01})
	if q.IsPlaying() {
		t.Error("malformed buffers must not start playback")
	}

	// the queue keeps accepting well-formed audio afterwards
	q.Enqueue(EncodePCM16([]float32{0.5}))
	if !q.IsPlaying() {
		t.Error("queue should play well-formed audio after discarding bad buffers")
	}
}

func TestPlaybackEnqueueAfterClose(t *testing.T) {
	q, p := newTestQueue(time.Hour)
	q.Enqueue(EncodePCM16([]float32{0.5}))
	q.Close()

	if p.stopped != 1 {
		t.Errorf("device stopped %d times, want 1", p.stopped)
	}

	q.Enqueue(EncodePCM16([]float32{0.5}))
	if q.IsPlaying() {
		t.Error("enqueue after Close must be a no-op")
	}
}
