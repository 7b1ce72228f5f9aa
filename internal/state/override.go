package state

import (
	"sync"
	"time"
)

// Override is a short-lived local state substitution applied after a user
// action (e.g. "Complete & Kill"), pending confirmation from an
// authoritative signal. Overrides are never persisted.
type Override struct {
	State Activity
	SetAt time.Time
}

// OverrideStore holds active overrides keyed by session name. Safe for
// concurrent use.
type OverrideStore struct {
	mu        sync.Mutex
	overrides map[string]Override
}

// NewOverrideStore returns an empty override store.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{overrides: make(map[string]Override)}
}

// Set installs an override for a session, replacing any existing one.
func (s *OverrideStore) Set(session string, a Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[session] = Override{State: a, SetAt: time.Now()}
}

// Get returns the active override for a session, if any.
func (s *OverrideStore) Get(session string) (Override, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[session]
	return o, ok
}

// Clear removes any override for a session.
func (s *OverrideStore) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, session)
}

// Observe applies an authoritative signal state to the store: if the
// session's override is satisfied by the signal (see OverrideSatisfied),
// the override is cleared. Returns true if an override was cleared.
func (s *OverrideStore) Observe(session string, signalState Activity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[session]
	if !ok {
		return false
	}
	if OverrideSatisfied(o.State, signalState) {
		delete(s.overrides, session)
		return true
	}
	return false
}
