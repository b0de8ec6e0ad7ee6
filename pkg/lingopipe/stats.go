package lingopipe

import (
	"sync"
	"time"
)

// StreamStats accumulates per-capture-session counters. All methods are
// safe for concurrent use; Record is called from the audio callback and
// must stay allocation-free.
type StreamStats struct {
	mu             sync.Mutex
	startedAt      time.Time
	blocks         int64
	samples        int64
	speakingBlocks int64
	sumAmplitude   float64
	maxAmplitude   float64
}

// StreamStatsSnapshot is an immutable view of the counters.
type StreamStatsSnapshot struct {
	Duration           time.Duration
	Blocks             int64
	Samples            int64
	AverageAmplitude   float64
	MaxAmplitude       float64
	VoiceActivityRatio float64
}

func NewStreamStats() *StreamStats {
	return &StreamStats{startedAt: time.Now()}
}

// Reset zeroes the counters and restarts the clock.
func (s *StreamStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = time.Now()
	s.blocks = 0
	s.samples = 0
	s.speakingBlocks = 0
	s.sumAmplitude = 0
	s.maxAmplitude = 0
}

// Record accounts one captured block.
func (s *StreamStats) Record(rms float64, sampleCount int, speaking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks++
	s.samples += int64(sampleCount)
	s.sumAmplitude += rms
	if rms > s.maxAmplitude {
		s.maxAmplitude = rms
	}
	if speaking {
		s.speakingBlocks++
	}
}

// Snapshot returns the current counters.
func (s *StreamStats) Snapshot() StreamStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StreamStatsSnapshot{
		Duration:     time.Since(s.startedAt),
		Blocks:       s.blocks,
		Samples:      s.samples,
		MaxAmplitude: s.maxAmplitude,
	}
	if s.blocks > 0 {
		snap.AverageAmplitude = s.sumAmplitude / float64(s.blocks)
		snap.VoiceActivityRatio = float64(s.speakingBlocks) / float64(s.blocks)
	}
	return snap
}
