package lingopipe

import (
	"encoding/json"
	"fmt"
)

// Wire message types. Binary frames on the same channel are always
// synthesized-speech audio and never carry a type tag.
const (
	// outbound
	TypeSessionCreate   = "session.create"
	TypeInputAudioStart = "input_audio.start"
	TypeInputAudioStop  = "input_audio.stop"
	TypeSessionPause    = "session.pause"
	TypeSessionResume   = "session.resume"
	TypeSessionEnd      = "session.end"

	// inbound
	TypeSessionCreated     = "session.created"
	TypeTranscriptPartial  = "transcript.partial"
	TypeTranscriptFinal    = "transcript.final"
	TypeTranscriptDone     = "transcript.done"
	TypeTranslationPartial = "translation.partial"
	TypeTranslationFinal   = "translation.final"
	TypeTranslationDone    = "translation.done"
	TypeAudioStart         = "audio.start"
	TypeAudioDone          = "audio.done"
	TypeAudioEnd           = "audio.end"
	TypeStatusUpdate       = "status.update"
	TypeError              = "error"
)

// ControlMessage is an outbound control frame. Session parameters are only
// set on session.create.
type ControlMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id,omitempty"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
	Voice      string `json:"voice,omitempty"`
	Denoise    *bool  `json:"denoise,omitempty"`
}

func newSessionCreate(sessionID string, cfg *Config) ControlMessage {
	denoise := cfg.Denoise
	return ControlMessage{
		Type:       TypeSessionCreate,
		SessionID:  sessionID,
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		Voice:      cfg.VoiceType,
		Denoise:    &denoise,
	}
}

// InboundMessage is the tagged sum type of control messages the remote
// pipeline sends. Decoding rejects unknown tags instead of silently
// ignoring them.
type InboundMessage interface {
	inbound()
}

type SessionCreated struct {
	SessionID string
}

type TranscriptPartial struct {
	Text string
}

// TranscriptFinal freezes the original-language text of the utterance being
// translated.
type TranscriptFinal struct {
	Text string
}

type TranslationPartial struct {
	Text string
}

// TranslationFinal completes a segment; the state machine pairs it with the
// pending original text.
type TranslationFinal struct {
	Text string
}

type AudioStart struct{}

type AudioEnd struct{}

type StatusUpdate struct {
	Status ProcessingStatus
}

// RemoteMessageError is an explicit {type:"error"} message from the remote
// pipeline. It is surfaced to the caller and does not close the connection.
type RemoteMessageError struct {
	Message string
}

func (SessionCreated) inbound()     {}
func (TranscriptPartial) inbound()  {}
func (TranscriptFinal) inbound()    {}
func (TranslationPartial) inbound() {}
func (TranslationFinal) inbound()   {}
func (AudioStart) inbound()         {}
func (AudioEnd) inbound()           {}
func (StatusUpdate) inbound()       {}
func (RemoteMessageError) inbound() {}

// inboundEnvelope is the superset of fields any inbound control message may
// carry. The segment object is a fallback some pipeline versions send on
// finalization instead of a bare text field.
type inboundEnvelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Segment   *struct {
		OriginalText   string `json:"original_text"`
		TranslatedText string `json:"translated_text"`
	} `json:"segment"`
}

// DecodeInbound parses one inbound text frame. Malformed JSON and unknown
// tags return an ErrCodeProtocol error; the caller logs and drops the frame
// without tearing down the connection.
func DecodeInbound(data []byte) (InboundMessage, *Error) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, NewProtocolError("malformed control message").AddDetail("cause", err.Error())
	}

	switch env.Type {
	case TypeSessionCreated:
		return SessionCreated{SessionID: env.SessionID}, nil
	case TypeTranscriptPartial:
		return TranscriptPartial{Text: env.Text}, nil
	case TypeTranscriptFinal, TypeTranscriptDone:
		text := env.Text
		if text == "" && env.Segment != nil {
			text = env.Segment.OriginalText
		}
		return TranscriptFinal{Text: text}, nil
	case TypeTranslationPartial:
		return TranslationPartial{Text: env.Text}, nil
	case TypeTranslationFinal, TypeTranslationDone:
		text := env.Text
		if text == "" && env.Segment != nil {
			text = env.Segment.TranslatedText
		}
		return TranslationFinal{Text: text}, nil
	case TypeAudioStart, TypeAudioDone:
		return AudioStart{}, nil
	case TypeAudioEnd:
		return AudioEnd{}, nil
	case TypeStatusUpdate:
		return StatusUpdate{Status: ProcessingStatus(env.Status)}, nil
	case TypeError:
		return RemoteMessageError{Message: env.Message}, nil
	case "":
		return nil, NewProtocolError("control message missing type tag")
	default:
		return nil, NewProtocolError(fmt.Sprintf("unknown message type %q", env.Type))
	}
}
