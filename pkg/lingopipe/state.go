package lingopipe

import (
	"sync"
	"time"
)

// SessionState is the single-writer reducer over inbound protocol events.
// All events arrive serialized through the transport's read loop; Apply
// must not be called concurrently from two sources. Observers receive
// values, never interior references, and may not mutate state.
//
// On reconnect the reducer is not replayed or rewound: it continues from
// the current state, and segment indices keep incrementing.
type SessionState struct {
	now func() time.Time

	mu                 sync.Mutex
	status             ProcessingStatus
	partialOriginal    string
	partialTranslation string
	pendingOriginal    string
	segments           []TranscriptSegment
	nextIndex          int
	startedAt          time.Time

	statusHandlers  []StatusHandler
	segmentHandlers []SegmentHandler
	partialHandlers []PartialHandler
	errorHandlers   []ErrorHandler
}

func NewSessionState() *SessionState {
	s := &SessionState{now: time.Now}
	s.startedAt = s.now()
	s.status = StatusIdle
	return s
}

// Apply reduces one inbound event into the session state. Handlers fire
// after the state change, in registration order, outside the lock.
func (s *SessionState) Apply(msg InboundMessage) {
	var notify []func()

	s.mu.Lock()
	switch m := msg.(type) {
	case SessionCreated:
		// acknowledgment only; no state change

	case TranscriptPartial:
		s.partialOriginal = m.Text
		notify = append(notify, s.partialNotifiersLocked()...)
		notify = append(notify, s.setStatusLocked(StatusListening)...)

	case TranscriptFinal:
		s.partialOriginal = m.Text
		s.pendingOriginal = m.Text
		notify = append(notify, s.partialNotifiersLocked()...)
		notify = append(notify, s.setStatusLocked(StatusTranslating)...)

	case TranslationPartial:
		s.partialTranslation = m.Text
		notify = append(notify, s.partialNotifiersLocked()...)
		notify = append(notify, s.setStatusLocked(StatusTranslating)...)

	case TranslationFinal:
		seg := TranscriptSegment{
			Index:          s.nextIndex,
			OriginalText:   s.pendingOriginal,
			TranslatedText: m.Text,
			Timestamp:      s.now().Sub(s.startedAt).Seconds(),
		}
		s.nextIndex++
		s.segments = append(s.segments, seg)
		s.partialOriginal = ""
		s.partialTranslation = ""
		s.pendingOriginal = ""
		for _, h := range s.segmentHandlers {
			if h == nil {
				continue
			}
			h := h
			notify = append(notify, func() { h(seg) })
		}
		notify = append(notify, s.partialNotifiersLocked()...)

	case AudioStart:
		notify = append(notify, s.setStatusLocked(StatusSpeaking)...)

	case AudioEnd:
		notify = append(notify, s.setStatusLocked(StatusListening)...)

	case StatusUpdate:
		if m.Status.Valid() {
			notify = append(notify, s.setStatusLocked(m.Status)...)
		}

	case RemoteMessageError:
		// surfaced to the caller; status unchanged
		err := NewRemoteError(m.Message)
		for _, h := range s.errorHandlers {
			if h == nil {
				continue
			}
			h := h
			notify = append(notify, func() { h(err) })
		}
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

func (s *SessionState) setStatusLocked(status ProcessingStatus) []func() {
	if s.status == status {
		return nil
	}
	s.status = status
	fns := make([]func(), 0, len(s.statusHandlers))
	for _, h := range s.statusHandlers {
		if h == nil {
			continue
		}
		h := h
		fns = append(fns, func() { h(status) })
	}
	return fns
}

func (s *SessionState) partialNotifiersLocked() []func() {
	original, translation := s.partialOriginal, s.partialTranslation
	fns := make([]func(), 0, len(s.partialHandlers))
	for _, h := range s.partialHandlers {
		if h == nil {
			continue
		}
		h := h
		fns = append(fns, func() { h(original, translation) })
	}
	return fns
}

// Reset clears the transcript and returns the machine to idle, for reuse
// across sessions. It is never called mid-session: within one session,
// reconnects continue from current state and indices are never reused.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIdle
	s.partialOriginal = ""
	s.partialTranslation = ""
	s.pendingOriginal = ""
	s.segments = nil
	s.nextIndex = 0
	s.startedAt = s.now()
}

// Status returns the current derived ProcessingStatus.
func (s *SessionState) Status() ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Partials returns the rolling partial strings.
func (s *SessionState) Partials() (original, translation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partialOriginal, s.partialTranslation
}

// Segments returns a copy of the finalized segments in order.
func (s *SessionState) Segments() []TranscriptSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptSegment, len(s.segments))
	copy(out, s.segments)
	return out
}

// SegmentCount returns the number of finalized segments.
func (s *SessionState) SegmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// OnStatus registers a status-change observer; returns an unsubscribe func.
// Unsubscribing nils the slot; invocation skips nil slots, so indices held
// by other unsubscribe funcs stay valid.
func (s *SessionState) OnStatus(h StatusHandler) func() {
	s.mu.Lock()
	s.statusHandlers = append(s.statusHandlers, h)
	idx := len(s.statusHandlers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.statusHandlers[idx] = nil
	}
}

// OnSegment registers a finalized-segment observer.
func (s *SessionState) OnSegment(h SegmentHandler) func() {
	s.mu.Lock()
	s.segmentHandlers = append(s.segmentHandlers, h)
	idx := len(s.segmentHandlers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.segmentHandlers[idx] = nil
	}
}

// OnPartial registers a rolling-partial observer.
func (s *SessionState) OnPartial(h PartialHandler) func() {
	s.mu.Lock()
	s.partialHandlers = append(s.partialHandlers, h)
	idx := len(s.partialHandlers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.partialHandlers[idx] = nil
	}
}

// OnError registers an observer for remote pipeline errors.
func (s *SessionState) OnError(h ErrorHandler) func() {
	s.mu.Lock()
	s.errorHandlers = append(s.errorHandlers, h)
	idx := len(s.errorHandlers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.errorHandlers[idx] = nil
	}
}
