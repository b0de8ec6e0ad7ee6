package lingopipe

// ProcessingStatus is the single pipeline status derived by the session
// state machine. Exactly one value holds at a time.
type ProcessingStatus string

const (
	StatusIdle        ProcessingStatus = "idle"
	StatusListening   ProcessingStatus = "listening"
	StatusProcessing  ProcessingStatus = "processing"
	StatusTranslating ProcessingStatus = "translating"
	StatusSpeaking    ProcessingStatus = "speaking"
)

// Valid reports whether s is one of the five known statuses. Remote
// status.update messages carrying anything else are ignored.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusListening, StatusProcessing, StatusTranslating, StatusSpeaking:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a session record.
type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// TranslationMode selects how microphone audio is gated.
type TranslationMode string

const (
	ModeRealtime   TranslationMode = "realtime"
	ModePushToTalk TranslationMode = "push-to-talk"
)

// ConnectionState enum for the transport session.
type ConnectionState string

const (
	Disconnected ConnectionState = "disconnected"
	Connecting   ConnectionState = "connecting"
	Connected    ConnectionState = "connected"
	Reconnecting ConnectionState = "reconnecting"
)

// TranscriptSegment is one finalized transcription/translation pair.
// Immutable once created; Index is strictly monotonic per session and is
// never reused, including across transport reconnects.
type TranscriptSegment struct {
	Index          int     `json:"index"`
	OriginalText   string  `json:"original_text"`
	TranslatedText string  `json:"translated_text"`
	Timestamp      float64 `json:"timestamp"` // seconds since session start
}

// SessionConfig is the payload for creating a session record.
type SessionConfig struct {
	TeacherName       string          `json:"teacher_name"`
	ClassName         string          `json:"class_name"`
	Subject           string          `json:"subject"`
	CourseOutline     string          `json:"course_outline"`
	SourceLang        string          `json:"source_lang"`
	TargetLang        string          `json:"target_lang"`
	VoiceType         string          `json:"voice_type"`
	Mode              TranslationMode `json:"mode"`
	NoiseCancellation bool            `json:"noise_cancellation"`
}

// Session is a session record as returned by the collaborator API.
type Session struct {
	ID                string          `json:"id"`
	TeacherName       string          `json:"teacher_name"`
	ClassName         string          `json:"class_name"`
	Subject           string          `json:"subject"`
	CourseOutline     string          `json:"course_outline"`
	SourceLang        string          `json:"source_lang"`
	TargetLang        string          `json:"target_lang"`
	VoiceType         string          `json:"voice_type"`
	Mode              TranslationMode `json:"mode"`
	NoiseCancellation bool            `json:"noise_cancellation"`
	Status            SessionStatus   `json:"status"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
	DurationSeconds   int             `json:"duration_seconds"`
}

// SessionUpdate is a partial update to a session record. Zero fields are
// omitted from the request body.
type SessionUpdate struct {
	Status          SessionStatus `json:"status,omitempty"`
	DurationSeconds int           `json:"duration_seconds,omitempty"`
}

// Voice describes a selectable synthesis voice.
type Voice struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Language   string `json:"language"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// LessonSummary is a post-session summary artifact.
type LessonSummary struct {
	Original        string   `json:"original"`
	Translated      string   `json:"translated"`
	KeyPoints       []string `json:"key_points"`
	DurationMinutes int      `json:"duration_minutes"`
	SegmentCount    int      `json:"segment_count"`
}

// VocabItem is one extracted vocabulary entry.
type VocabItem struct {
	ID                string `json:"id"`
	Original          string `json:"original"`
	Translated        string `json:"translated"`
	Phonetic          string `json:"phonetic"`
	Difficulty        string `json:"difficulty"`
	ExampleOriginal   string `json:"example_original"`
	ExampleTranslated string `json:"example_translated"`
}

// Flashcard is one generated review flashcard.
type Flashcard struct {
	ID       string `json:"id"`
	Front    string `json:"front"`
	Back     string `json:"back"`
	Phonetic string `json:"phonetic"`
	Example  string `json:"example"`
}

// Handler types. Registration methods return an unsubscribe func.
type SegmentHandler func(TranscriptSegment)
type PartialHandler func(original, translation string)
type StatusHandler func(ProcessingStatus)
type ConnectionHandler func(ConnectionState)
type ErrorHandler func(*Error)

// FrameSink consumes one outbound PCM16 audio frame. The frame is owned by
// the sink after the call; capture never reuses the backing array.
type FrameSink func(frame []byte)
