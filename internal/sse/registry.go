package sse

import (
	"fmt"
	"iter"
	"sync"
)

// Registry is the process-wide token -> connection map. It owns membership
// only; disconnect policy lives in the Manager. Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// Add associates a token with a connection. It fails if the token is
// already present, which UUID uniqueness makes impossible in practice.
func (r *Registry) Add(token string, conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[token]; exists {
		return fmt.Errorf("sse: token %s already registered", token)
	}
	r.connections[token] = conn
	return nil
}

// Remove deletes a token and reports whether it was present. Atomic and
// idempotent: the first caller gets true, everyone after gets false. This
// is the dedup barrier the disconnect path relies on.
func (r *Registry) Remove(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[token]; !exists {
		return false
	}
	delete(r.connections, token)
	return true
}

// Get returns the connection for a token, if present.
func (r *Registry) Get(token string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[token]
	return conn, ok
}

// Has reports whether a token is present.
func (r *Registry) Has(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.connections[token]
	return ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// All returns an iterator over the current connections.
func (r *Registry) All() iter.Seq[*Connection] {
	return func(yield func(*Connection) bool) {
		r.mu.RLock()
		snapshot := make([]*Connection, 0, len(r.connections))
		for _, conn := range r.connections {
			snapshot = append(snapshot, conn)
		}
		r.mu.RUnlock()

		for _, conn := range snapshot {
			if !yield(conn) {
				return
			}
		}
	}
}
