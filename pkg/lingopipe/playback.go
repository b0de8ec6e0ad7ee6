package lingopipe

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// playbackBufferSize is the device callback size in frames.
const playbackBufferSize = 1024

// player abstracts the output device so queue behavior is testable without
// hardware. pull is invoked from the device callback and must not block.
type player interface {
	start(sampleRate, channels, bufferSize int, pull func(out []float32)) error
	stop() error
}

type portaudioPlayer struct {
	stream *portaudio.Stream
}

func (p *portaudioPlayer) start(sampleRate, channels, bufferSize int, pull func(out []float32)) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), bufferSize, pull)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	p.stream = stream
	return nil
}

func (p *portaudioPlayer) stop() error {
	if p.stream == nil {
		return nil
	}
	err := p.stream.Stop()
	if cerr := p.stream.Close(); err == nil {
		err = cerr
	}
	p.stream = nil
	portaudio.Terminate()
	return err
}

// PlaybackQueue plays synthesized PCM16 buffers in FIFO order, one at a
// time, with gapless advance. After the last buffer drains, IsPlaying stays
// true for a fixed cooldown so the barge-in detector does not mistake tail
// echo of the just-finished buffer for new speech. PCM16 is rescaled to
// float only inside the device callback.
type PlaybackQueue struct {
	sampleRate int
	channels   int
	cooldown   time.Duration
	p          player
	log        *Logger

	mu            sync.Mutex
	queue         [][]byte
	active        []byte
	offset        int
	playing       bool
	started       bool
	closed        bool
	cooldownTimer *time.Timer
}

func NewPlaybackQueue(cfg *Config) *PlaybackQueue {
	return newPlaybackQueue(cfg.OutputSampleRate, cfg.Channels, cfg.PlaybackCooldown, &portaudioPlayer{})
}

func newPlaybackQueue(sampleRate, channels int, cooldown time.Duration, p player) *PlaybackQueue {
	return &PlaybackQueue{
		sampleRate: sampleRate,
		channels:   channels,
		cooldown:   cooldown,
		p:          p,
		log:        GetGlobalLogger().WithComponent("playback"),
	}
}

// Enqueue appends a raw PCM16 little-endian buffer and starts playback if
// idle. A malformed buffer is discarded; the queue keeps going.
func (q *PlaybackQueue) Enqueue(frame []byte) {
	if len(frame) == 0 || len(frame)%2 != 0 {
		q.log.LogSDKError(NewPlaybackError("discarding malformed audio buffer").
			AddDetail("bytes", len(frame)))
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.queue = append(q.queue, frame)
	q.playing = true
	if q.cooldownTimer != nil {
		q.cooldownTimer.Stop()
		q.cooldownTimer = nil
	}
	needStart := !q.started
	if needStart {
		q.started = true
	}
	q.mu.Unlock()

	if needStart {
		if err := q.p.start(q.sampleRate, q.channels, playbackBufferSize, q.fill); err != nil {
			q.log.LogSDKError(WrapError(err, ErrCodePlayback))
			q.mu.Lock()
			q.started = false
			q.queue = nil
			q.active = nil
			q.playing = false
			q.mu.Unlock()
		}
	}
}

// fill is the device callback. It drains the active buffer, advances
// through the queue with no gap, and pads with silence when empty.
func (q *PlaybackQueue) fill(out []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := 0
	for i < len(out) {
		if q.active == nil || q.offset >= len(q.active) {
			if len(q.queue) > 0 {
				q.active = q.queue[0]
				q.queue = q.queue[1:]
				q.offset = 0
				continue
			}
			q.active = nil
			break
		}
		s := int16(binary.LittleEndian.Uint16(q.active[q.offset:]))
		out[i] = float32(s) / 32768
		q.offset += 2
		i++
	}
	for ; i < len(out); i++ {
		out[i] = 0
	}

	if q.active == nil && len(q.queue) == 0 && q.playing && q.cooldownTimer == nil {
		q.cooldownTimer = time.AfterFunc(q.cooldown, q.cooldownExpired)
	}
}

func (q *PlaybackQueue) cooldownExpired() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cooldownTimer = nil
	if q.active == nil && len(q.queue) == 0 {
		q.playing = false
	}
}

// ClearAll stops in-flight playback immediately and discards all queued
// buffers. Idempotent; safe to call when already idle.
func (q *PlaybackQueue) ClearAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = nil
	q.active = nil
	q.offset = 0
	q.playing = false
	if q.cooldownTimer != nil {
		q.cooldownTimer.Stop()
		q.cooldownTimer = nil
	}
}

// IsPlaying reports whether audio is audible or within the post-drain
// cooldown window.
func (q *PlaybackQueue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// QueuedBuffers returns the number of buffers awaiting playback, not
// counting the active one.
func (q *PlaybackQueue) QueuedBuffers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Close clears the queue and releases the output device.
func (q *PlaybackQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.queue = nil
	q.active = nil
	q.playing = false
	if q.cooldownTimer != nil {
		q.cooldownTimer.Stop()
		q.cooldownTimer = nil
	}
	started := q.started
	q.started = false
	q.mu.Unlock()

	if started {
		if err := q.p.stop(); err != nil {
			q.log.WithError(err).Warn("failed to stop playback stream")
		}
	}
}
