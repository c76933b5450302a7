// Package session keeps per-user conversation state in memory.
package session

import (
	"fmt"
	"maps"
	"sync"
	"time"
)

// Session is one user's in-progress workflow.
type Session struct {
	UserID    string
	Kind      string
	Step      string
	Fields    map[string]any
	StartedAt time.Time
	UpdatedAt time.Time
}

// Field returns the value stored for name, if any.
func (s Session) Field(name string) (any, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// Store maps user ids to their active session. A user has at most one.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Begin creates a session for userID at firstStep, replacing any session the
// user already had.
func (s *Store) Begin(userID, kind, firstStep string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		UserID:    userID,
		Kind:      kind,
		Step:      firstStep,
		Fields:    make(map[string]any),
		StartedAt: now,
		UpdatedAt: now,
	}
	s.sessions[userID] = sess
	return sess.snapshot()
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return sess.snapshot(), true
}

// Advance stores value under field and moves the session to step.
func (s *Store) Advance(userID, step, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return fmt.Errorf("no active session for user %s", userID)
	}
	if field != "" {
		sess.Fields[field] = value
	}
	sess.Step = step
	sess.UpdatedAt = s.now()
	return nil
}

// End removes the user's session and reports whether one existed.
func (s *Store) End(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Session) snapshot() Session {
	cp := *s
	cp.Fields = maps.Clone(s.Fields)
	return cp
}
