package session

import (
	"sync"
	"time"
)

const (
	// DefaultTranscriptLimit bounds a session's history to the most recent items.
	DefaultTranscriptLimit = 30
	// DefaultMaxSessions bounds how many session keys the store retains before
	// evicting the least recently active one.
	DefaultMaxSessions = 10000
)

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process-local map. Safe for concurrent access. Sessions returned by Get are
// clones to prevent external mutation of internal state.
//
// The key set is bounded: when MaxSessions is exceeded the least recently
// active session is evicted, so sustained traffic from many visitors cannot
// grow memory without bound.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	transcriptLimit int
	maxSessions     int
	now             func() time.Time
}

// Options configure an InMemoryStore.
type Options struct {
	// TranscriptLimit is the max number of transcript items kept per session.
	TranscriptLimit int
	// MaxSessions is the max number of session keys retained. 0 disables eviction.
	MaxSessions int
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		TranscriptLimit: DefaultTranscriptLimit,
		MaxSessions:     DefaultMaxSessions,
		Now:             time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		sessions:        make(map[string]*Session),
		transcriptLimit: opts.TranscriptLimit,
		maxSessions:     opts.MaxSessions,
		now:             opts.Now,
	}
}

// Get returns a snapshot of an existing session or creates a new empty one.
func (s *InMemoryStore) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess.Clone(), nil
	}
	return s.createLocked(sessionID).Clone(), nil
}

// RecordTurn appends the client and assistant items of one accepted turn,
// enforces the transcript bound, increments the turn counter, merges newly
// discovered facts without overwriting existing ones and stamps activity.
func (s *InMemoryStore) RecordTurn(sessionID string, turn Turn) error {
	at := turn.At
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createLocked(sessionID)
	}

	sess.Transcript = append(sess.Transcript,
		TranscriptItem{From: SpeakerClient, Text: turn.ClientText},
		TranscriptItem{From: SpeakerAssistant, Text: turn.AssistantText},
	)
	if s.transcriptLimit > 0 && len(sess.Transcript) > s.transcriptLimit {
		drop := len(sess.Transcript) - s.transcriptLimit
		sess.Transcript = append(sess.Transcript[:0:0], sess.Transcript[drop:]...)
	}

	sess.Turns++
	sess.LastUserMessage = turn.ClientText
	sess.LastAssistantReply = turn.AssistantText
	sess.LastActivityAt = at
	sess.Facts = sess.Facts.Merge(turn.Facts)
	return nil
}

// Len returns the number of session keys currently retained.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// createLocked allocates and stores a new session; caller must hold the write
// lock. Evicts the least recently active session when the key bound is hit.
func (s *InMemoryStore) createLocked(sessionID string) *Session {
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	sess := &Session{ID: sessionID}
	s.sessions[sessionID] = sess
	return sess
}

func (s *InMemoryStore) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, sess := range s.sessions {
		if !found || sess.LastActivityAt.Before(oldestAt) {
			oldestID, oldestAt, found = id, sess.LastActivityAt, true
		}
	}
	if found {
		delete(s.sessions, oldestID)
	}
}
