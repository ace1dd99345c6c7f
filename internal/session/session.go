// Package session tracks per-visitor state for the web surface.
//
// Each browser gets one [Session], keyed by an opaque UUID carried in a
// cookie. A session owns the current text slot, the most recent transcript,
// and the voice selection. State is guarded by a per-session mutex because
// multiple tabs may share the same cookie.
package session

import (
	"strings"
	"sync"
	"time"
)

// DefaultGreeting pre-fills the text slot of a fresh session.
const DefaultGreeting = "Hi there, I'm your personal assistant."

// Session holds the mutable state of a single visitor.
//
// All methods are safe for concurrent use.
type Session struct {
	// ID is the opaque session identifier, immutable after creation.
	ID string

	mu         sync.Mutex
	text       string
	textSeq    uint64
	transcript string
	similarity float64
	voice      string
	language   string
	inFlight   bool
	lastSeen   time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		text:     DefaultGreeting,
		lastSeen: now,
	}
}

// Text returns the current content of the text slot.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText overwrites the text slot unconditionally and returns the write
// sequence number of the update. Writes are last-writer-wins: a later call
// always replaces an earlier one regardless of content.
func (s *Session) SetText(text string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.textSeq++
	return s.textSeq
}

// TextSeq returns the sequence number of the most recent SetText.
func (s *Session) TextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textSeq
}

// Transcript returns the most recent recognition result stored on the
// session, or the empty string if none.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// SetTranscript stores text as the latest transcript and, when apply is true,
// also overwrites the text slot with it. similarity is the round-trip score
// against the text that was in the slot before the overwrite.
func (s *Session) SetTranscript(text string, similarity float64, apply bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
	s.similarity = similarity
	if apply {
		s.text = text
		s.textSeq++
	}
}

// Similarity returns the round-trip score stored with the latest transcript.
func (s *Session) Similarity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.similarity
}

// Voice returns the selected voice ID and language.
func (s *Session) Voice() (id, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice, s.language
}

// SetVoice records the visitor's voice and language selection. Blank values
// leave the corresponding field unchanged.
func (s *Session) SetVoice(id, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(id) != "" {
		s.voice = id
	}
	if strings.TrimSpace(language) != "" {
		s.language = language
	}
}

// BeginSynthesis marks a synthesis job as in flight. It reports false when
// one is already running, in which case the caller must not start another.
func (s *Session) BeginSynthesis() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// EndSynthesis clears the in-flight marker set by BeginSynthesis.
func (s *Session) EndSynthesis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// Touch refreshes the last-activity timestamp used for idle expiry.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
}

// LastSeen returns the time of the most recent activity on the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
