package store

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room is closed")
)

// Member is one occupied slot in a room. Removal is keyed by connection
// identity, not by display name, since names are not unique.
type Member struct {
	ConnID   string
	Name     string
	JoinedAt time.Time
}

// Snapshot is an immutable copy of a room's state, taken under the room
// lock so it stays consistent while broadcasts are in flight.
type Snapshot struct {
	Code       string
	Players    []string
	MemberIDs  []string
	MaxPlayers int
	IsFull     bool
	CreatedAt  time.Time
}

// Room is a single party room. Code, capacity, and creation time are
// immutable; the member list is guarded by the room's own mutex so that
// mutations to one room never block another.
type Room struct {
	code       string
	maxPlayers int
	createdAt  time.Time

	mu      sync.Mutex
	members []Member
	closed  bool
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// MaxPlayers returns the fixed capacity set at creation.
func (r *Room) MaxPlayers() int { return r.maxPlayers }

// CreatedAt returns the room's creation time.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Join appends a member and returns the resulting snapshot. It fails with
// ErrRoomFull at capacity and ErrRoomClosed if the room has been removed
// from the store while the caller held a stale reference.
func (r *Room) Join(connID, name string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Snapshot{}, ErrRoomClosed
	}
	if len(r.members) >= r.maxPlayers {
		return Snapshot{}, ErrRoomFull
	}

	r.members = append(r.members, Member{
		ConnID:   connID,
		Name:     name,
		JoinedAt: time.Now(),
	})
	return r.snapshotLocked(), nil
}

// Leave removes the member backed by connID, preserving join order of the
// rest. It reports whether a member was actually removed and whether the
// room is now empty; removing an absent connection is a no-op.
func (r *Room) Leave(connID string) (snap Snapshot, removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.members {
		if m.ConnID == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			removed = true
			break
		}
	}
	return r.snapshotLocked(), removed, len(r.members) == 0
}

// Snapshot returns a consistent copy of the current state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]string, len(r.members))
	ids := make([]string, len(r.members))
	for i, m := range r.members {
		players[i] = m.Name
		ids[i] = m.ConnID
	}
	return Snapshot{
		Code:       r.code,
		Players:    players,
		MemberIDs:  ids,
		MaxPlayers: r.maxPlayers,
		IsFull:     len(r.members) >= r.maxPlayers,
		CreatedAt:  r.createdAt,
	}
}

// close marks the room dead so late joins against a stale reference fail.
func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
