// Package registry tracks which room each live connection belongs to.
// The association is lookup-only: clearing it never touches the room
// itself, whose lifecycle is governed solely by its player count.
package registry

import (
	"errors"
	"sync"
)

// ErrAlreadyBound is returned when a connection that already belongs to a
// room attempts to bind again. A connection belongs to at most one room.
var ErrAlreadyBound = errors.New("connection already bound to a room")

// Registry is a thread-safe connection-to-room map with a reverse index
// for broadcast fan-out. The reverse index preserves bind order.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]string
	byRoom map[string][]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byConn: make(map[string]string),
		byRoom: make(map[string][]string),
	}
}

// Bind records that connID belongs to the room under code. The bind is the
// atomic per-connection claim: a second bind for the same connection fails
// with ErrAlreadyBound regardless of the target room.
func (r *Registry) Bind(connID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[connID]; ok {
		return ErrAlreadyBound
	}
	r.byConn[connID] = code
	r.byRoom[code] = append(r.byRoom[code], connID)
	return nil
}

// Unbind clears the association for connID and returns what it was.
func (r *Registry) Unbind(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	r.unbindLocked(connID, code)
	return code, true
}

// UnbindIf clears the association only if connID is currently bound to
// code. It reports whether the unbind happened, letting leave handlers
// reject stale codes without racing a concurrent disconnect.
func (r *Registry) UnbindIf(connID, code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byConn[connID]
	if !ok || current != code {
		return false
	}
	r.unbindLocked(connID, code)
	return true
}

func (r *Registry) unbindLocked(connID, code string) {
	delete(r.byConn, connID)
	conns := r.byRoom[code]
	for i, id := range conns {
		if id == connID {
			r.byRoom[code] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(r.byRoom[code]) == 0 {
		delete(r.byRoom, code)
	}
}

// Lookup returns the room code connID is bound to, if any.
func (r *Registry) Lookup(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.byConn[connID]
	return code, ok
}

// Members returns the connections currently bound to code, in bind order.
// The result is a copy safe to iterate while binds continue.
func (r *Registry) Members(code string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byRoom[code]
	result := make([]string, len(conns))
	copy(result, conns)
	return result
}

// Count returns the number of bound connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
