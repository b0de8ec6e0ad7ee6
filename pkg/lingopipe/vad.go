package lingopipe

import (
	"sync"
	"time"
)

// DetectorConfig holds the energy thresholds and hysteresis timing for
// voice-activity and barge-in decisions.
type DetectorConfig struct {
	// SpeakingThreshold is the RMS level above which a block counts as
	// speech for the general VAD signal.
	SpeakingThreshold float64
	// BargeInThreshold is the higher RMS level required to count as speech
	// while synthesized audio is playing. Acoustic echo of the synthesized
	// voice re-entering the microphone sits below it.
	BargeInThreshold float64
	// SilenceHang is how long RMS must stay below the speaking threshold
	// before the speaking flag drops.
	SilenceHang time.Duration
}

// Detector is a stateful energy-based voice-activity detector. The speaking
// flag rises on the first block above threshold and falls only after
// SilenceHang of continuous sub-threshold blocks, so brief dips do not
// chatter the signal.
type Detector struct {
	cfg DetectorConfig

	mu           sync.Mutex
	speaking     bool
	silenceSince time.Time
}

func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Update feeds one block's RMS energy at the given instant and returns the
// resulting speaking flag.
func (d *Detector) Update(rms float64, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rms > d.cfg.SpeakingThreshold {
		d.speaking = true
		d.silenceSince = time.Time{}
		return true
	}

	if d.speaking {
		if d.silenceSince.IsZero() {
			d.silenceSince = now
		} else if now.Sub(d.silenceSince) >= d.cfg.SilenceHang {
			d.speaking = false
			d.silenceSince = time.Time{}
		}
	}
	return d.speaking
}

// Speaking returns the current speaking flag.
func (d *Detector) Speaking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}

// Interrupts reports whether a block with the given RMS constitutes a
// barge-in over active playback.
func (d *Detector) Interrupts(rms float64) bool {
	return rms > d.cfg.BargeInThreshold
}

// Reset returns the detector to its neutral state.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speaking = false
	d.silenceSince = time.Time{}
}
