package lingopipe_test

import (
	"testing"
	"time"

	"github.com/lingopipe/lingopipe-sdk-go/pkg/lingopipe"
)

func newTestDetector() *lingopipe.Detector {
	return lingopipe.NewDetector(lingopipe.DetectorConfig{
		SpeakingThreshold: 0.02,
		BargeInThreshold:  0.08,
		SilenceHang:       500 * time.Millisecond,
	})
}

func TestDetectorRisesImmediately(t *testing.T) {
	d := newTestDetector()
	now := time.Now()

	if d.Speaking() {
		t.Fatal("detector should start silent")
	}
	if !d.Update(0.05, now) {
		t.Error("first loud block should flip speaking on")
	}
	if !d.Speaking() {
		t.Error("Speaking should report true after a loud block")
	}
}

func TestDetectorHoldsThroughBriefSilence(t *testing.T) {
	d := newTestDetector()
	now := time.Now()

	d.Update(0.05, now)

	// below threshold but well inside the hang window
	if !d.Update(0.001, now.Add(100*time.Millisecond)) {
		t.Error("speaking should hold through a brief dip")
	}
	if !d.Update(0.001, now.Add(300*time.Millisecond)) {
		t.Error("speaking should still hold before the hang elapses")
	}

	// loud again: the silence clock resets
	d.Update(0.05, now.Add(400*time.Millisecond))
	if !d.Update(0.001, now.Add(800*time.Millisecond)) {
		t.Error("hang should be measured from the latest loud block")
	}
}

func TestDetectorFallsAfterSilenceHang(t *testing.T) {
	d := newTestDetector()
	now := time.Now()

	d.Update(0.05, now)
	d.Update(0.001, now.Add(100*time.Millisecond))
	if d.Update(0.001, now.Add(700*time.Millisecond)) {
		t.Error("speaking should drop once silence exceeds the hang")
	}
	if d.Speaking() {
		t.Error("Speaking should report false after the hang elapsed")
	}
}

func TestDetectorSingleQuietBlockDoesNotFlip(t *testing.T) {
	d := newTestDetector()
	now := time.Now()

	d.Update(0.05, now)
	if !d.Update(0.001, now.Add(600*time.Millisecond)) {
		t.Error("first quiet block only starts the silence clock")
	}
}

func TestDetectorInterrupts(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name string
		rms  float64
		want bool
	}{
		{"silence", 0.001, false},
		{"speech below barge-in", 0.05, false},
		{"at barge-in threshold", 0.08, false},
		{"above barge-in threshold", 0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Interrupts(tt.rms); got != tt.want {
				t.Errorf("Interrupts(%v) = %v, want %v", tt.rms, got, tt.want)
			}
		})
	}
}

func TestDetectorReset(t *testing.T) {
	d := newTestDetector()
	d.Update(0.05, time.Now())
	d.Reset()
	if d.Speaking() {
		t.Error("Reset should clear the speaking flag")
	}
}
