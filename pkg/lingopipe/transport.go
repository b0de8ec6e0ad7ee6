package lingopipe

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type outFrame struct {
	text    bool
	payload []byte
}

// Transport is the duplex channel to the remote speech pipeline. It owns
// the websocket handle, the reconnect state machine, and a bounded outbound
// queue drained by a single writer goroutine per connection.
//
// Reconnection is a fixed-delay timer, not exponential backoff: the remote
// pipeline is assumed LAN-class. A reconnect attempt while a connection is
// open or pending is a no-op, and Disconnect cancels any pending timer.
//
// Inbound routing: binary frames are synthesized audio and go to the binary
// sink untouched; text frames are decoded as control messages and handed to
// the inbound sink from this one read loop, which is the reducer's single
// ingestion point.
type Transport struct {
	cfg *Config
	log *Logger

	onBinary  func([]byte)
	onInbound func(InboundMessage)

	mu              sync.Mutex
	conn            *websocket.Conn
	state           ConnectionState
	sessionID       string
	shouldReconnect bool
	reconnectTimer  *time.Timer
	connHandlers    []ConnectionHandler
	errorHandlers   []ErrorHandler

	// writeMu is held by the writer goroutine around each WriteMessage so
	// Disconnect can wait out an in-flight write before closing the socket.
	writeMu sync.Mutex

	outbound      chan outFrame
	droppedFrames atomic.Int64
}

func NewTransport(cfg *Config) *Transport {
	return &Transport{
		cfg:      cfg,
		log:      GetGlobalLogger().WithComponent("transport"),
		state:    Disconnected,
		outbound: make(chan outFrame, cfg.OutboundQueueSize),
	}
}

// OnBinary sets the sink for inbound synthesized-audio frames. Must be set
// before Connect.
func (t *Transport) OnBinary(fn func([]byte)) {
	t.onBinary = fn
}

// OnInbound sets the sink for decoded inbound control messages. Must be set
// before Connect.
func (t *Transport) OnInbound(fn func(InboundMessage)) {
	t.onInbound = fn
}

// Connect opens the channel for the given session and sends session.create
// once the socket is confirmed open. Calling Connect while connected or
// connecting is a no-op.
func (t *Transport) Connect(sessionID string) error {
	t.mu.Lock()
	if t.state != Disconnected {
		t.mu.Unlock()
		return nil
	}
	t.sessionID = sessionID
	t.shouldReconnect = true
	notify := t.setStateLocked(Connecting)
	t.mu.Unlock()
	runAll(notify)

	return t.dial()
}

func (t *Transport) dial() error {
	t.mu.Lock()
	sessionID := t.sessionID
	t.mu.Unlock()

	header := http.Header{}
	if t.cfg.APIKey != "" {
		token, err := GenerateWSToken(t.cfg.APIKey, sessionID)
		if err != nil {
			t.mu.Lock()
			t.shouldReconnect = false
			notify := t.setStateLocked(Disconnected)
			t.mu.Unlock()
			runAll(notify)
			return err
		}
		header.Set("Authorization", "Bearer "+token.Token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(t.cfg.WSEndpoint, header)
	if err != nil {
		werr := WrapError(err, ErrCodeTransportClosed)
		t.mu.Lock()
		notify := t.setStateLocked(Disconnected)
		if t.shouldReconnect {
			t.scheduleReconnectLocked()
		}
		t.mu.Unlock()
		runAll(notify)
		t.notifyError(werr)
		return werr
	}

	t.mu.Lock()
	if !t.shouldReconnect {
		// Disconnect raced the dial
		t.mu.Unlock()
		conn.Close()
		return NewTransportError("disconnected during connect")
	}
	t.conn = conn
	notify := t.setStateLocked(Connected)
	t.mu.Unlock()
	runAll(notify)

	// session.create precedes everything else on the wire; the writer
	// goroutine is not running yet, so this direct write cannot race it.
	create := newSessionCreate(sessionID, t.cfg)
	if data, merr := json.Marshal(create); merr == nil {
		if werr := conn.WriteMessage(websocket.TextMessage, data); werr != nil {
			t.log.WithError(werr).Warn("failed to send session.create")
		}
	}

	stop := make(chan struct{})
	go t.writeLoop(conn, stop)
	go t.readLoop(conn, stop)

	t.log.LogConnectionEvent("connected", Connected, map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

func (t *Transport) readLoop(conn *websocket.Conn, stop chan struct{}) {
	defer close(stop)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.handleClosed(conn, err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if t.cfg.DebugWebsocket {
				t.log.Debugf("received %d bytes of audio", len(data))
			}
			if t.onBinary != nil {
				t.onBinary(data)
			}
		case websocket.TextMessage:
			msg, perr := DecodeInbound(data)
			if perr != nil {
				// malformed or unknown: logged and dropped, the
				// connection stays up
				t.log.LogSDKError(perr)
				continue
			}
			if t.cfg.DebugWebsocket {
				t.log.Debugf("received control message %T", msg)
			}
			if t.onInbound != nil {
				t.onInbound(msg)
			}
		}
	}
}

func (t *Transport) writeLoop(conn *websocket.Conn, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case f := <-t.outbound:
			msgType := websocket.BinaryMessage
			if f.text {
				msgType = websocket.TextMessage
			}
			t.writeMu.Lock()
			err := conn.WriteMessage(msgType, f.payload)
			t.writeMu.Unlock()
			if err != nil {
				// the read loop observes the same failure and runs the
				// close handling
				conn.Close()
				return
			}
		}
	}
}

// handleClosed reacts to an unexpected close of conn. Caller-initiated
// Disconnect clears t.conn first, so a stale conn is ignored here and no
// reconnect is scheduled.
func (t *Transport) handleClosed(conn *websocket.Conn, err error) {
	conn.Close()

	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.drainOutboundLocked()
	notify := t.setStateLocked(Disconnected)
	reconnecting := t.shouldReconnect
	if reconnecting {
		t.scheduleReconnectLocked()
	}
	t.mu.Unlock()
	runAll(notify)

	if reconnecting {
		t.log.WithError(err).Warnf("connection lost, reconnecting in %s", t.cfg.ReconnectDelay)
	}
}

func (t *Transport) scheduleReconnectLocked() {
	if t.reconnectTimer != nil {
		return
	}
	t.reconnectTimer = time.AfterFunc(t.cfg.ReconnectDelay, t.reconnect)
}

func (t *Transport) reconnect() {
	t.mu.Lock()
	t.reconnectTimer = nil
	if !t.shouldReconnect || t.state != Disconnected {
		t.mu.Unlock()
		return
	}
	notify := t.setStateLocked(Reconnecting)
	t.mu.Unlock()
	runAll(notify)

	if err := t.dial(); err != nil {
		t.log.WithError(err).Warn("reconnect attempt failed")
	}
}

// SendAudio enqueues one PCM16 frame, fire-and-forget. When the transport
// is disconnected or the queue is full the frame is dropped; audio is not
// durable and is never retried.
func (t *Transport) SendAudio(frame []byte) {
	t.mu.Lock()
	connected := t.state == Connected
	t.mu.Unlock()
	if !connected {
		t.droppedFrames.Add(1)
		return
	}

	select {
	case t.outbound <- outFrame{payload: frame}:
	default:
		t.droppedFrames.Add(1)
		if t.cfg.DebugAudio {
			t.log.Debug("outbound queue full, dropping audio frame")
		}
	}
}

// SendControl enqueues one control message behind any audio already queued,
// preserving wire order relative to frames.
func (t *Transport) SendControl(msg ControlMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return WrapError(err, ErrCodeJSONParse)
	}

	t.mu.Lock()
	connected := t.state == Connected
	t.mu.Unlock()
	if !connected {
		return NewTransportError("not connected")
	}

	select {
	case t.outbound <- outFrame{text: true, payload: data}:
		return nil
	case <-time.After(time.Second):
		return NewTransportError("outbound queue stalled")
	}
}

// Disconnect closes the channel and cancels any pending reconnect. No
// reconnect attempt occurs afterwards. Frames already queued (the
// session.end of a normal shutdown) are given a bounded window to reach
// the wire before the socket closes.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.shouldReconnect = false
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
	conn := t.conn
	connected := t.state == Connected
	t.mu.Unlock()

	if conn != nil && connected {
		t.awaitOutboundFlush(time.Second)
	}

	t.mu.Lock()
	t.conn = nil
	t.drainOutboundLocked()
	notify := t.setStateLocked(Disconnected)
	t.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	runAll(notify)

	t.log.LogConnectionEvent("disconnected", Disconnected, nil)
}

// awaitOutboundFlush waits until the writer has drained the outbound queue
// and finished its in-flight write, or the deadline passes.
func (t *Transport) awaitOutboundFlush(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for len(t.outbound) > 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	t.writeMu.Lock()
	t.writeMu.Unlock()
}

func (t *Transport) drainOutboundLocked() {
	for {
		select {
		case <-t.outbound:
		default:
			return
		}
	}
}

func (t *Transport) setStateLocked(state ConnectionState) []func() {
	if t.state == state {
		return nil
	}
	t.state = state
	fns := make([]func(), 0, len(t.connHandlers))
	for _, h := range t.connHandlers {
		if h == nil {
			continue
		}
		h := h
		fns = append(fns, func() { h(state) })
	}
	return fns
}

func (t *Transport) notifyError(err *Error) {
	t.mu.Lock()
	handlers := make([]ErrorHandler, 0, len(t.errorHandlers))
	for _, h := range t.errorHandlers {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	t.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

// OnConnection registers a connection-state observer; returns an
// unsubscribe func.
func (t *Transport) OnConnection(h ConnectionHandler) func() {
	t.mu.Lock()
	t.connHandlers = append(t.connHandlers, h)
	idx := len(t.connHandlers) - 1
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.connHandlers[idx] = nil
	}
}

// OnError registers an observer for transport errors.
func (t *Transport) OnError(h ErrorHandler) func() {
	t.mu.Lock()
	t.errorHandlers = append(t.errorHandlers, h)
	idx := len(t.errorHandlers) - 1
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.errorHandlers[idx] = nil
	}
}

// State returns the current connection state.
func (t *Transport) State() ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsConnected reports whether the channel is open.
func (t *Transport) IsConnected() bool {
	return t.State() == Connected
}

// DroppedFrames returns how many outbound audio frames were dropped.
func (t *Transport) DroppedFrames() int64 {
	return t.droppedFrames.Load()
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
