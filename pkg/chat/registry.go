package chat

import (
	"errors"
	"sort"
	"sync"
)

// ErrUsernameTaken is returned by TryAuthenticate when another live session
// already holds the requested username.
var ErrUsernameTaken = errors.New("chat: username already taken")

// Registry is the authoritative directory of live sessions. One mutex guards
// both maps so every operation, in particular the check-and-bind step of
// TryAuthenticate, is atomic under concurrent handlers and the reaper.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*Session // all registered sessions
	byName map[string]*Session // authenticated sessions only
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Session),
		byName: make(map[string]*Session),
	}
}

// Register adds an unauthenticated session. It always succeeds; from this
// point the session is visible to ListAll until Unregister completes.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.id] = s
}

// TryAuthenticate atomically checks username uniqueness and, if the name is
// free, binds it and promotes the session. Exact, case-sensitive match. Two
// sessions racing for the same name: exactly one wins, the other gets
// ErrUsernameTaken.
func (r *Registry) TryAuthenticate(s *Session, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[username]; taken {
		return ErrUsernameTaken
	}
	if !s.bind(username) {
		return ErrSessionClosed
	}
	r.byName[username] = s
	return nil
}

// Unregister removes a session from the directory. No-op if already removed.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if name := s.Username(); name != "" && r.byName[name] == s {
		delete(r.byName, name)
	}
}

// FindByUsername returns the authenticated session holding the exact
// username, or nil.
func (r *Registry) FindByUsername(name string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

// ListAuthenticated returns a snapshot of all authenticated sessions sorted
// by username. Later registry mutations do not affect a returned snapshot.
func (r *Registry) ListAuthenticated() []*Session {
	r.mu.Lock()
	result := make([]*Session, 0, len(r.byName))
	for _, s := range r.byName {
		result = append(result, s)
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Username() < result[j].Username()
	})
	return result
}

// ListAll returns a snapshot of every registered session, authenticated or
// not.
func (r *Registry) ListAll() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		result = append(result, s)
	}
	return result
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
