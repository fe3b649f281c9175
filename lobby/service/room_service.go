package service

import (
	"context"
)

// RoomService defines all room membership and inspection operations.
type RoomService interface {
	// Membership (keyed by transport connection identity)
	CreateRoom(ctx context.Context, connID, username string) (*RoomSnapshot, error)
	JoinRoom(ctx context.Context, connID, username, code string) (*RoomSnapshot, error)
	LeaveRoom(ctx context.Context, connID, code string) error
	Disconnect(ctx context.Context, connID string)

	// Inspection and administration
	GetRoom(ctx context.Context, code string) (*RoomSnapshot, error)
	ListRooms(ctx context.Context) ([]*RoomSnapshot, error)
	CloseRoom(ctx context.Context, code string) error
	Stats(ctx context.Context) (*Stats, error)
}

// Notifier delivers room state to connections. The transport layer
// implements it; every call receives an immutable snapshot and is made
// after the room's lock has been released.
type Notifier interface {
	// RoomJoined acknowledges a successful create or join to the requester.
	RoomJoined(connID string, snap *RoomSnapshot)

	// RoomUpdated fans the snapshot out to every member of the room.
	RoomUpdated(snap *RoomSnapshot)

	// RoomDeleted announces that a room is gone. recipients carries the
	// connections that should still be told (the departing member on an
	// explicit last leave, every evicted member on an admin close); it is
	// empty when nobody remains to notify.
	RoomDeleted(code string, recipients []string)
}
