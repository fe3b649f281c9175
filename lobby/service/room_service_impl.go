package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/partyrooms/server/lobby/registry"
	"github.com/partyrooms/server/lobby/store"
)

// DefaultMaxPlayers is the room capacity used when none is configured.
const DefaultMaxPlayers = 2

// AnonymousName is substituted for empty display names.
const AnonymousName = "Anonymous"

// roomServiceImpl implements the RoomService interface.
type roomServiceImpl struct {
	store      *store.Store
	registry   *registry.Registry
	notifier   Notifier
	maxPlayers int
}

// NewRoomService creates a new room service instance. A nil notifier
// disables outbound delivery, which is useful for tests and for the REST
// surface running without a hub.
func NewRoomService(st *store.Store, reg *registry.Registry, notifier Notifier, maxPlayers int) RoomService {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &roomServiceImpl{
		store:      st,
		registry:   reg,
		notifier:   notifier,
		maxPlayers: maxPlayers,
	}
}

// CreateRoom allocates a room with a fresh code and enrolls the requester
// as its first player.
func (s *roomServiceImpl) CreateRoom(ctx context.Context, connID, username string) (*RoomSnapshot, error) {
	username = normalizeUsername(username)

	if _, bound := s.registry.Lookup(connID); bound {
		return nil, ErrAlreadyInRoom
	}

	room, err := s.store.Create(s.maxPlayers, connID, username)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Bind(connID, room.Code()); err != nil {
		// Lost a race with another request on the same connection; the
		// room was never announced, so reclaim it quietly.
		s.store.Remove(room.Code(), room)
		return nil, ErrAlreadyInRoom
	}

	snap := toSnapshot(room.Snapshot())
	log.Printf("%s created room %s", username, snap.Code)

	s.notifier.RoomJoined(connID, snap)
	s.notifier.RoomUpdated(snap)
	return snap, nil
}

// JoinRoom enrolls the requester into the room under code.
func (s *roomServiceImpl) JoinRoom(ctx context.Context, connID, username, rawCode string) (*RoomSnapshot, error) {
	username = normalizeUsername(username)
	c := store.Normalize(rawCode)

	room, err := s.store.Get(c)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	// Bind first: the registry claim keeps a connection from enrolling
	// twice, and guarantees the joiner is visible to the broadcast fan-out
	// the moment the room mutation commits.
	if err := s.registry.Bind(connID, room.Code()); err != nil {
		return nil, ErrAlreadyInRoom
	}

	snap, err := room.Join(connID, username)
	if err != nil {
		s.registry.UnbindIf(connID, room.Code())
		switch {
		case errors.Is(err, store.ErrRoomFull):
			return nil, ErrRoomFull
		default:
			// Room was reclaimed between lookup and join.
			return nil, ErrRoomNotFound
		}
	}

	out := toSnapshot(snap)
	log.Printf("%s joined room %s (%d/%d)", username, out.Code, len(out.Players), out.MaxPlayers)

	s.notifier.RoomJoined(connID, out)
	s.notifier.RoomUpdated(out)
	return out, nil
}

// LeaveRoom removes the requester from the room it claims to be in. The
// code is checked against the actual association to reject stale clients.
func (s *roomServiceImpl) LeaveRoom(ctx context.Context, connID, rawCode string) error {
	c := store.Normalize(rawCode)

	if !s.registry.UnbindIf(connID, c) {
		return ErrNotInRoom
	}
	s.removeMember(connID, c, true)
	return nil
}

// Disconnect is a forced leave triggered by the transport. There is no
// acknowledgement path; cleanup failures are silently idempotent.
func (s *roomServiceImpl) Disconnect(ctx context.Context, connID string) {
	c, ok := s.registry.Unbind(connID)
	if !ok {
		return
	}
	s.removeMember(connID, c, false)
}

// removeMember takes connID out of the room under c. The caller must have
// already released the registry association, which makes a concurrent
// leave/disconnect pair for the same connection resolve to exactly one
// removal. notifyDeparted controls whether the departing connection still
// has a live message path.
func (s *roomServiceImpl) removeMember(connID, c string, notifyDeparted bool) {
	room, err := s.store.Get(c)
	if err != nil {
		return // already reclaimed
	}

	snap, removed, empty := room.Leave(connID)
	if !removed {
		return
	}

	if empty {
		s.store.Remove(c, room)
		log.Printf("room %s deleted (empty)", c)
		var recipients []string
		if notifyDeparted {
			recipients = []string{connID}
		}
		s.notifier.RoomDeleted(c, recipients)
		return
	}

	s.notifier.RoomUpdated(toSnapshot(snap))
}

// GetRoom returns the current snapshot for a code.
func (s *roomServiceImpl) GetRoom(ctx context.Context, rawCode string) (*RoomSnapshot, error) {
	room, err := s.store.Get(rawCode)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	return toSnapshot(room.Snapshot()), nil
}

// ListRooms returns snapshots of all live rooms.
func (s *roomServiceImpl) ListRooms(ctx context.Context) ([]*RoomSnapshot, error) {
	rooms := s.store.List()
	result := make([]*RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, toSnapshot(room.Snapshot()))
	}
	return result, nil
}

// CloseRoom force-closes a room, evicting every member. Used by the admin
// surface; regular rooms are reclaimed automatically when they empty.
func (s *roomServiceImpl) CloseRoom(ctx context.Context, rawCode string) error {
	c := store.Normalize(rawCode)

	room, err := s.store.Get(c)
	if err != nil {
		return ErrRoomNotFound
	}

	// Remove from the store first so new joins fail, then release the
	// members' associations.
	s.store.Remove(c, room)
	snap := room.Snapshot()
	for _, id := range snap.MemberIDs {
		s.registry.UnbindIf(id, c)
	}

	log.Printf("room %s force-closed (%d members evicted)", c, len(snap.MemberIDs))
	s.notifier.RoomDeleted(c, snap.MemberIDs)
	return nil
}

// Stats summarizes live rooms, players, and bound connections.
func (s *roomServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	players := 0
	for _, room := range s.store.List() {
		players += len(room.Snapshot().Players)
	}
	return &Stats{
		Rooms:       s.store.Count(),
		Players:     players,
		Connections: s.registry.Count(),
	}, nil
}

// normalizeUsername trims a display name and substitutes a default for
// empty input.
func normalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousName
	}
	return name
}

// noopNotifier discards all outbound delivery.
type noopNotifier struct{}

func (noopNotifier) RoomJoined(string, *RoomSnapshot) {}
func (noopNotifier) RoomUpdated(*RoomSnapshot)        {}
func (noopNotifier) RoomDeleted(string, []string)     {}
