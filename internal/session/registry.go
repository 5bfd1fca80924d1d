// internal/session/registry.go
package session

import (
	"sort"
	"sync"
)

// Registry is the process-wide store of live sessions. It guards only the
// keyed collection itself; each session carries its own mutex, so operations
// on different sessions never serialize on the registry.
//
// Lock order: the registry lock is never acquired while a session lock is
// held. Taking a session lock under the registry read lock is fine.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry initializes an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create inserts a new session with the creator seated as white. Returns
// ErrSessionConflict if the id is already taken.
func (r *Registry) Create(connID, name, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return nil, ErrSessionConflict
	}
	s := New(id, name, connID)
	r.sessions[id] = s
	return s, nil
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes a session by id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// FindByConnection scans for the session a connection is seated in. Used for
// leave/disconnect paths where only the connection identity is known. Linear
// over the live session count, which stays small.
func (r *Registry) FindByConnection(connID string) (*Session, bool) {
	r.mu.RLock()
	candidates := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		candidates = append(candidates, s)
	}
	r.mu.RUnlock()

	for _, s := range candidates {
		s.Mu.Lock()
		seated := s.HasPlayerUnsafe(connID)
		s.Mu.Unlock()
		if seated {
			return s, true
		}
	}
	return nil, false
}

// ListSanitized snapshots every session as a SummaryView, ordered by id so the
// lobby list is stable between broadcasts.
func (r *Registry) ListSanitized() []SummaryView {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	views := make([]SummaryView, 0, len(sessions))
	for _, s := range sessions {
		s.Mu.Lock()
		views = append(views, s.SummaryUnsafe())
		s.Mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}
