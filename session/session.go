package session

import (
	"time"

	"github.com/rids-cl/webchat/extract"
)

// Speaker tags who produced a transcript item.
type Speaker string

const (
	// SpeakerClient marks text typed by the website visitor.
	SpeakerClient Speaker = "client"
	// SpeakerAssistant marks text produced by the assistant.
	SpeakerAssistant Speaker = "assistant"
)

// TranscriptItem is one utterance in a session's bounded history.
type TranscriptItem struct {
	From Speaker `json:"from"`
	Text string  `json:"text"`
}

// Session is the continuity unit for one visitor, keyed by an opaque id.
//
// Invariants:
//   - Transcript never exceeds the store's configured bound
//   - Turns equals the number of accepted turns recorded
//   - Facts are monotonic: once set, a field is never overwritten
type Session struct {
	ID                 string
	Transcript         []TranscriptItem
	Turns              int
	LastUserMessage    string
	LastAssistantReply string
	LastActivityAt     time.Time
	Facts              extract.Facts
}

// Clone returns a deep copy safe for independent use by the caller.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Transcript = make([]TranscriptItem, len(s.Transcript))
	copy(clone.Transcript, s.Transcript)
	return &clone
}

// Turn captures one accepted exchange to be recorded against a session.
type Turn struct {
	ClientText    string
	AssistantText string
	Facts         extract.Facts
	At            time.Time
}

// Store is the keyed session state contract consumed by the orchestrator.
// Get is read-through-create: referencing an unseen key yields a fresh empty
// session. Implementations must be safe for concurrent use across keys.
type Store interface {
	Get(sessionID string) (*Session, error)
	RecordTurn(sessionID string, turn Turn) error
}
