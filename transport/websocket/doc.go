// Package websocket provides the WebSocket transport for the room service.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Per-connection identity (one connection, at most one room)
//   - Event dispatch from clients to the room service
//   - Snapshot fan-out to room members
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks all
// open connections by ID. Each connection is handled by a pair of
// goroutines: readPump decodes inbound events and forwards them to the
// room service, writePump drains the outbound queue onto the wire.
//
// The Hub implements the room service's Notifier interface. The service
// never talks to sockets directly; it reports membership changes and the
// hub resolves room codes to member connections through the shared
// registry.
//
// Message Protocol:
//
// Messages are JSON-encoded envelopes of the form {event, data}.
//   - Incoming: create_room, join_room_code, leave_room_code,
//     ping_from_client
//   - Outgoing: room_joined, room_update, room_deleted, error_message,
//     pong_from_server, server_message
//
// Connection Lifecycle:
//
// 1. Client connects, gets a fresh connection ID and a server_message
// 2. Client creates or joins a room; the hub acks with room_joined
// 3. Membership changes arrive as room_update broadcasts
// 4. Disconnection forces the connection out of its room
//
// Usage:
//
//	reg := registry.New()
//	hub := websocket.NewHub(reg)
//	svc := service.NewRoomService(store, reg, hub, maxPlayers)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, svc)
//	})
//
// Concurrency:
//
// The hub is safe for concurrent use. Outbound delivery never blocks the
// room service: each client has a buffered send queue, and a client that
// cannot keep up is dropped.
package websocket
