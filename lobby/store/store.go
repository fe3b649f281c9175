package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/partyrooms/server/lobby/code"
)

// ErrRoomNotFound is returned when no room exists under a code.
var ErrRoomNotFound = errors.New("room not found")

// Store holds all live rooms keyed by join code.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	gen   *code.Generator
}

// NewStore creates an empty store. A nil generator falls back to the
// default code length and retry budget.
func NewStore(gen *code.Generator) *Store {
	if gen == nil {
		gen = code.NewGenerator(0, 0)
	}
	return &Store{
		rooms: make(map[string]*Room),
		gen:   gen,
	}
}

// Create allocates a fresh unique code and inserts a room with its first
// member already enrolled, so an empty room is never observable. It only
// fails when the code space is exhausted.
func (s *Store) Create(maxPlayers int, connID, name string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.gen.Generate(func(candidate string) bool {
		_, exists := s.rooms[candidate]
		return exists
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := &Room{
		code:       c,
		maxPlayers: maxPlayers,
		createdAt:  now,
		members: []Member{{
			ConnID:   connID,
			Name:     name,
			JoinedAt: now,
		}},
	}
	s.rooms[c] = room
	return room, nil
}

// Get looks up a room by code. Input is case-normalized.
func (s *Store) Get(c string) (*Room, error) {
	c = Normalize(c)
	s.mu.RLock()
	room, ok := s.rooms[c]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove deletes the room registered under c, but only if it is still the
// given instance. Removing an absent or superseded code is a no-op, since
// concurrent cleanup paths may race; the removed room is marked closed so
// a join holding a stale reference observes the removal.
func (s *Store) Remove(c string, room *Room) {
	c = Normalize(c)
	s.mu.Lock()
	current, ok := s.rooms[c]
	if ok && current == room {
		delete(s.rooms, c)
	} else {
		ok = false
	}
	s.mu.Unlock()

	if ok {
		room.close()
	}
}

// List returns all live rooms in unspecified order.
func (s *Store) List() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		result = append(result, room)
	}
	return result
}

// Count returns the number of live rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Normalize canonicalizes a join code: codes are case-insensitive on input
// and stored uppercase.
func Normalize(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
