package session

import (
	"fmt"
	"sort"
	"sync"

	"sei-gateway/go-backend/internal/domains/contracts"
)

// Registry maps session identifiers to open streams. It is the only
// shared mutable state of the gateway; every method runs in a single
// critical section.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Stream
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Stream)}
}

// Insert binds id to s, overwriting any previous binding. The replaced
// stream, if any, is returned so the caller can report the collision.
func (r *Registry) Insert(id string, s *Stream) *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.entries[id]
	r.entries[id] = s
	if prev == s {
		return nil
	}
	return prev
}

func (r *Registry) Lookup(id string) (*Stream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.entries[id]
	return s, ok
}

// Remove deletes the binding for id; absent ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// release removes id only while it is still bound to s, so a stream that
// lost a last-writer-wins race never purges its replacement.
func (r *Registry) release(id string, s *Stream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[id]; !ok || cur != s {
		return false
	}
	delete(r.entries, id)
	return true
}

// ResolveAmbiguous returns supplied unchanged when present. Without a
// supplied id it falls back to the only open session, and fails when
// there are none or several.
func (r *Registry) ResolveAmbiguous(supplied string) (string, error) {
	if supplied != "" {
		return supplied, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch len(r.entries) {
	case 0:
		return "", &contracts.Error{
			Kind:    contracts.KindAmbiguousOrMissingSession,
			Message: "sessionId is required: no active sessions",
		}
	case 1:
		for id := range r.entries {
			return id, nil
		}
	}
	return "", &contracts.Error{
		Kind:    contracts.KindAmbiguousOrMissingSession,
		Message: fmt.Sprintf("sessionId is required: %d active sessions", len(r.entries)),
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns a sorted snapshot of the registered identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) streams() []*Stream {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Stream, 0, len(r.entries))
	for _, s := range r.entries {
		out = append(out, s)
	}
	return out
}
