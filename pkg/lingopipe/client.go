package lingopipe

import (
	"context"
	"sync"
	"time"
)

// playbackControl is the slice of PlaybackQueue the barge-in decision needs.
type playbackControl interface {
	IsPlaying() bool
	ClearAll()
}

// continuousSink builds the continuous-mode frame sink. While playback is
// active, a frame only passes if its energy clears the barge-in threshold,
// in which case playback is cleared strictly before the frame is forwarded
// so the remote pipeline is not racing stale audio. Quieter frames during
// playback are acoustic echo of the synthesized voice and are dropped.
func continuousSink(pb playbackControl, det *Detector, send func([]byte)) FrameSink {
	return func(frame []byte) {
		if pb.IsPlaying() {
			rms := RMSPCM16(frame)
			if det.Interrupts(rms) {
				pb.ClearAll()
				send(frame)
			}
			return
		}
		send(frame)
	}
}

// Client is the top-level façade: it wires the capture engine, barge-in
// decision, transport, playback queue, and session state machine, and talks
// to the collaborator API to bootstrap and close session records.
type Client struct {
	cfg       *Config
	log       *Logger
	api       *APIClient
	transport *Transport
	playback  *PlaybackQueue
	detector  *Detector
	capture   *CaptureEngine
	state     *SessionState
	ptt       *PushToTalk

	mu        sync.Mutex
	sessionID string
	mode      TranslationMode
	active    bool
	paused    bool
	startedAt time.Time
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, NewConfigError("invalid configuration").AddDetail("issues", issues)
	}

	detector := NewDetector(DetectorConfig{
		SpeakingThreshold: cfg.SpeakingThreshold,
		BargeInThreshold:  cfg.BargeInThreshold,
		SilenceHang:       cfg.SilenceHang,
	})

	c := &Client{
		cfg:       cfg,
		log:       GetGlobalLogger().WithComponent("client"),
		api:       NewAPIClient(cfg.APIBaseURL, cfg.APIKey),
		detector:  detector,
		playback:  NewPlaybackQueue(cfg),
		state:     NewSessionState(),
		transport: NewTransport(cfg),
		mode:      ModeRealtime,
	}
	c.capture = NewCaptureEngine(cfg, detector)
	c.ptt = NewPushToTalk(c.capture, c.transport)

	c.transport.OnBinary(c.playback.Enqueue)
	c.transport.OnInbound(c.state.Apply)

	return c, nil
}

// StartSession creates a session record, opens the transport, and in
// realtime mode starts continuous capture. Returns the session id.
func (c *Client) StartSession(ctx context.Context, sc SessionConfig) (string, error) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return "", NewConfigError("session already active")
	}
	c.mu.Unlock()

	if sc.Mode == "" {
		sc.Mode = ModeRealtime
	}
	if sc.SourceLang == "" {
		sc.SourceLang = c.cfg.SourceLang
	}
	if sc.TargetLang == "" {
		sc.TargetLang = c.cfg.TargetLang
	}
	if sc.VoiceType == "" {
		sc.VoiceType = c.cfg.VoiceType
	}

	sess, err := c.api.CreateSession(ctx, sc)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.sessionID = sess.ID
	c.mode = sc.Mode
	c.active = true
	c.paused = false
	c.startedAt = time.Now()
	// session.create on the wire carries these negotiated parameters
	c.cfg.SourceLang = sc.SourceLang
	c.cfg.TargetLang = sc.TargetLang
	c.cfg.VoiceType = sc.VoiceType
	c.cfg.Denoise = sc.NoiseCancellation
	c.mu.Unlock()

	c.state.Reset()

	if err := c.transport.Connect(sess.ID); err != nil {
		// the transport keeps retrying on its fixed-delay timer; the
		// session stays usable once it gets through
		c.log.WithError(err).Warn("initial connect failed")
	}

	if sc.Mode == ModeRealtime {
		if cerr := c.capture.Start(continuousSink(c.playback, c.detector, c.transport.SendAudio)); cerr != nil {
			c.abortStart(ctx, sess.ID)
			return "", cerr
		}
	}

	c.log.Infof("session %s started (%s)", sess.ID, sc.Mode)
	return sess.ID, nil
}

// abortStart unwinds a partially started session: the transport comes down
// and the session record just created is marked completed so it does not
// linger active on the server.
func (c *Client) abortStart(ctx context.Context, sessionID string) {
	c.transport.Disconnect()
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()

	if _, err := c.api.UpdateSession(ctx, sessionID, SessionUpdate{Status: SessionCompleted}); err != nil {
		c.log.WithError(err).Warn("failed to close session record after failed start")
	}
}

// Pause suspends capture and tells the pipeline to hold.
func (c *Client) Pause() error {
	c.mu.Lock()
	if !c.active || c.paused {
		c.mu.Unlock()
		return nil
	}
	c.paused = true
	mode := c.mode
	c.mu.Unlock()

	if mode == ModeRealtime {
		c.capture.Stop()
	}
	return c.transport.SendControl(ControlMessage{Type: TypeSessionPause})
}

// Resume restarts capture after a Pause.
func (c *Client) Resume() error {
	c.mu.Lock()
	if !c.active || !c.paused {
		c.mu.Unlock()
		return nil
	}
	c.paused = false
	mode := c.mode
	c.mu.Unlock()

	if err := c.transport.SendControl(ControlMessage{Type: TypeSessionResume}); err != nil {
		return err
	}
	if mode == ModeRealtime {
		return c.capture.Start(continuousSink(c.playback, c.detector, c.transport.SendAudio))
	}
	return nil
}

// EndSession stops capture and playback, closes the transport, and marks
// the session record completed. The transcript remains readable afterwards.
func (c *Client) EndSession(ctx context.Context) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = false
	c.paused = false
	sessionID := c.sessionID
	elapsed := int(time.Since(c.startedAt).Seconds())
	c.mu.Unlock()

	c.capture.Stop()
	if err := c.transport.SendControl(ControlMessage{Type: TypeSessionEnd}); err != nil {
		c.log.WithError(err).Debug("session.end not delivered")
	}
	c.transport.Disconnect()
	c.playback.ClearAll()

	_, err := c.api.UpdateSession(ctx, sessionID, SessionUpdate{
		Status:          SessionCompleted,
		DurationSeconds: elapsed,
	})
	if err != nil {
		return err
	}

	c.log.Infof("session %s ended after %ds", sessionID, elapsed)
	return nil
}

// Cleanup releases all devices and the transport. The client is not usable
// afterwards.
func (c *Client) Cleanup() {
	c.capture.Stop()
	c.transport.Disconnect()
	c.playback.Close()
}

// PushToTalk returns the press/release controller. Meaningful in
// push-to-talk mode; in realtime mode the continuous sink owns the mic.
func (c *Client) PushToTalk() *PushToTalk {
	return c.ptt
}

// API exposes the collaborator API client for review artifacts.
func (c *Client) API() *APIClient {
	return c.api
}

// Status returns the derived processing status.
func (c *Client) Status() ProcessingStatus {
	return c.state.Status()
}

// Partials returns the rolling partial transcript strings.
func (c *Client) Partials() (original, translation string) {
	return c.state.Partials()
}

// Segments returns the finalized transcript so far.
func (c *Client) Segments() []TranscriptSegment {
	return c.state.Segments()
}

// SessionID returns the active (or last) session id.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Mode returns the session's translation mode.
func (c *Client) Mode() TranslationMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Speaking reports the VAD speaking flag.
func (c *Client) Speaking() bool {
	return c.capture.Speaking()
}

// IsPlaying reports whether synthesized audio is playing or cooling down.
func (c *Client) IsPlaying() bool {
	return c.playback.IsPlaying()
}

// ConnectionState returns the transport state.
func (c *Client) ConnectionState() ConnectionState {
	return c.transport.State()
}

// CaptureStats returns a snapshot of capture counters.
func (c *Client) CaptureStats() StreamStatsSnapshot {
	return c.capture.Stats()
}

// DroppedFrames returns how many outbound frames the transport dropped.
func (c *Client) DroppedFrames() int64 {
	return c.transport.DroppedFrames()
}

// Observer registration, delegated to the state machine and transport.

func (c *Client) OnSegment(h SegmentHandler) func()       { return c.state.OnSegment(h) }
func (c *Client) OnPartial(h PartialHandler) func()       { return c.state.OnPartial(h) }
func (c *Client) OnStatus(h StatusHandler) func()         { return c.state.OnStatus(h) }
func (c *Client) OnError(h ErrorHandler) func()           { return c.state.OnError(h) }
func (c *Client) OnConnection(h ConnectionHandler) func() { return c.transport.OnConnection(h) }
