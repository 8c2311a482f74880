// Package session keeps per-user conversation state: the selected service and
// the single current activation. Sessions are ephemeral; after a restart the
// provider's active-activation list is the system of record.
package session

import (
	"sync"

	"smsrent/internal/activation"
)

// Session holds one user's in-progress selection.
type Session struct {
	Service    string
	Activation *activation.Activation
}

// Store is an in-memory session table keyed by the front end's user identity.
// Each user's interaction sequence is serial; the mutex only guards distinct
// users being processed concurrently.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

func (s *Store) session(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{}
		s.sessions[userID] = sess
	}
	return sess
}

// SetService records the user's selected service code.
func (s *Store) SetService(userID int64, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).Service = code
}

// Service returns the user's selected service code.
func (s *Store) Service(userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Service == "" {
		return "", false
	}
	return sess.Service, true
}

// SetActivation installs the user's current activation, superseding any
// previous one. At most one activation is current per session.
func (s *Store) SetActivation(userID int64, act *activation.Activation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).Activation = act
}

// Activation returns the user's current activation.
func (s *Store) Activation(userID int64) (*activation.Activation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Activation == nil {
		return nil, false
	}
	return sess.Activation, true
}

// ClearActivation forgets the user's current activation.
func (s *Store) ClearActivation(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.Activation = nil
	}
}

// Clear removes the entire session for a user.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
