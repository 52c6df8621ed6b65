package dialogue

import (
	"context"
	"sync"
)

// SessionStore persists conversation state keyed by user identifier.
// Get returns (nil, nil) for unknown users; expiry is the engine's call,
// stores only hold what they were given.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, userID string, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Get returns the stored session, or nil for first contact.
func (s *MemorySessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

// Put stores a copy of the session.
func (s *MemorySessionStore) Put(ctx context.Context, userID string, sess *Session) error {
	copied := *sess
	s.mu.Lock()
	s.sessions[userID] = &copied
	s.mu.Unlock()
	return nil
}

// Delete removes the user's session.
func (s *MemorySessionStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
