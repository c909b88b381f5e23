package session

import (
	"sync"
)

// Joinable is what the store needs from a session: single matches and
// tournaments both qualify.
type Joinable interface {
	SessionName() string
	CanJoin() bool
}

// Store manages active sessions in memory, keyed by name. All access is
// thread-safe.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Joinable
}

// NewStore initializes and returns an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Joinable),
	}
}

// Add registers a session under its name. Adding a name that already
// exists reports false and leaves the existing session in place.
func (s *Store) Add(sess Joinable) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.SessionName()]; exists {
		return false
	}
	s.sessions[sess.SessionName()] = sess
	return true
}

// Get retrieves a session by name.
func (s *Store) Get(name string) (Joinable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[name]
	return sess, ok
}

// Delete removes a session by name, typically once its match has started
// or finished.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
}

// FirstJoinable returns any session that still accepts players, for the
// AUTOJOIN session choice. Reports false when none is open.
func (s *Store) FirstJoinable() (Joinable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.CanJoin() {
			return sess, true
		}
	}
	return nil, false
}

// Names lists the stored session names.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sessions))
	for name := range s.sessions {
		names = append(names, name)
	}
	return names
}
