// Package service provides the membership logic for party rooms.
//
// The service package implements:
//   - Room creation with collision-checked join codes
//   - Join/leave semantics with capacity enforcement
//   - Disconnect handling as a forced leave
//   - Empty-room reclamation
//   - Snapshot broadcasting through a transport-supplied Notifier
//
// Core Interfaces:
//
// RoomService is the main interface used by every transport (WebSocket,
// REST, MCP). Notifier is the outbound seam: the transport layer implements
// it to deliver room snapshots and deletion notices to connections.
//
// Architecture:
//
// The service sits between the transports and the lobby storage packages.
// Every state transition is keyed by a connection identifier supplied by
// the transport. The connection registry bind is the atomic claim on a
// connection, the room's own mutex serializes mutations to that room, and
// requests to different rooms proceed independently. Notifier calls happen
// after all locks are released, using the snapshot captured inside the
// critical section, so a late mutation can never corrupt an in-flight
// broadcast.
//
// Error Handling:
//
// All membership errors (ErrRoomNotFound, ErrRoomFull, ErrAlreadyInRoom,
// ErrNotInRoom) are request-scoped: they are surfaced to the offending
// requester and never affect other rooms or connections. Disconnect
// cleanup is silently idempotent, since no requester is listening.
//
// Usage:
//
//	st := store.NewStore(code.NewGenerator(0, 0))
//	reg := registry.New()
//	svc := service.NewRoomService(st, reg, notifier, 2)
//
//	snap, err := svc.CreateRoom(ctx, connID, "Alice")
//	if err != nil {
//		log.Fatal(err)
//	}
package service
