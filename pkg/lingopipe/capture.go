package lingopipe

import (
	"time"

	"sync"

	"github.com/gordonklaus/portaudio"
)

// CaptureEngine owns the microphone stream. While active it runs the fixed
// per-block pipeline on the portaudio callback: RMS energy, VAD update,
// PCM16 encode, sink hand-off. The sink must never block; the engine itself
// does no buffering.
type CaptureEngine struct {
	cfg      *Config
	detector *Detector
	stats    *StreamStats
	log      *Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
	sink    FrameSink
	lastRMS float64
}

func NewCaptureEngine(cfg *Config, detector *Detector) *CaptureEngine {
	return &CaptureEngine{
		cfg:      cfg,
		detector: detector,
		stats:    NewStreamStats(),
		log:      GetGlobalLogger().WithComponent("capture"),
	}
}

// Start acquires the input device and begins delivering PCM16 frames to
// sink. Failure to acquire the device (no hardware, no permission) returns
// an ErrCodeDeviceUnavailable error; the caller decides retry policy.
func (e *CaptureEngine) Start(sink FrameSink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return NewDeviceError("capture already running")
	}

	if err := portaudio.Initialize(); err != nil {
		return WrapError(err, ErrCodeDeviceUnavailable)
	}

	e.sink = sink
	e.stats.Reset()

	stream, err := e.openStream()
	if err != nil {
		portaudio.Terminate()
		e.sink = nil
		return WrapError(err, ErrCodeDeviceUnavailable)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		e.sink = nil
		return WrapError(err, ErrCodeDeviceUnavailable)
	}

	e.stream = stream
	e.running = true
	e.log.LogAudioEvent("capture_started", map[string]interface{}{
		"sample_rate": e.cfg.InputSampleRate,
		"block_size":  e.cfg.BlockSize,
	})
	return nil
}

func (e *CaptureEngine) openStream() (*portaudio.Stream, error) {
	callback := func(in []float32) {
		e.processBlock(in, time.Now())
	}

	if e.cfg.InputDeviceID == nil {
		return portaudio.OpenDefaultStream(e.cfg.Channels, 0,
			float64(e.cfg.InputSampleRate), e.cfg.BlockSize, callback)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	id := *e.cfg.InputDeviceID
	if id < 0 || id >= len(devices) {
		return nil, NewDeviceError("input device not found").AddDetail("device_id", id)
	}
	dev := devices[id]
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: e.cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(e.cfg.InputSampleRate),
		FramesPerBuffer: e.cfg.BlockSize,
	}
	return portaudio.OpenStream(params, callback)
}

// processBlock runs the per-block pipeline. Separated from the portaudio
// callback so it can be driven directly in tests.
func (e *CaptureEngine) processBlock(in []float32, now time.Time) {
	rms := RMS(in)
	speaking := e.detector.Update(rms, now)

	frame := EncodePCM16(in)

	e.mu.Lock()
	e.lastRMS = rms
	sink := e.sink
	e.mu.Unlock()

	e.stats.Record(rms, len(in), speaking)

	if sink != nil {
		sink(frame)
	}
}

// Stop releases the device synchronously and resets detector state to
// neutral. Safe to call when not running.
//
// The stream is stopped outside the mutex: Pa_StopStream waits for the
// in-flight callback to return, and the callback takes e.mu in
// processBlock, so holding the lock here would deadlock against a parked
// callback.
func (e *CaptureEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.sink = nil
	stream := e.stream
	e.stream = nil
	e.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			e.log.WithError(err).Warn("failed to stop capture stream")
		}
		if err := stream.Close(); err != nil {
			e.log.WithError(err).Warn("failed to close capture stream")
		}
	}
	portaudio.Terminate()

	e.detector.Reset()
	e.log.LogAudioEvent("capture_stopped", nil)
}

// Running reports whether the engine currently owns the device.
func (e *CaptureEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Speaking returns the detector's current speaking flag.
func (e *CaptureEngine) Speaking() bool {
	return e.detector.Speaking()
}

// Amplitude returns the RMS energy of the most recent block.
func (e *CaptureEngine) Amplitude() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRMS
}

// Stats returns a snapshot of the capture statistics.
func (e *CaptureEngine) Stats() StreamStatsSnapshot {
	return e.stats.Snapshot()
}
