package websocket

import "encoding/json"

// Client-to-server events.
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room_code"
	EventLeaveRoom  = "leave_room_code"
	EventPing       = "ping_from_client"
)

// Server-to-client events.
const (
	EventRoomJoined    = "room_joined"
	EventRoomUpdate    = "room_update"
	EventRoomDeleted   = "room_deleted"
	EventErrorMessage  = "error_message"
	EventPong          = "pong_from_server"
	EventServerMessage = "server_message"
)

// Envelope is the wire frame for inbound messages. Data is decoded lazily
// per event type.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is the wire frame for outbound messages.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// CreateRoomRequest is the payload of a create_room event.
type CreateRoomRequest struct {
	Username string `json:"username"`
}

// JoinRoomRequest is the payload of a join_room_code event.
type JoinRoomRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// LeaveRoomRequest is the payload of a leave_room_code event.
type LeaveRoomRequest struct {
	Code string `json:"code"`
}

// PingRequest carries the client's timestamp. It is kept opaque so the
// client gets back exactly what it sent, whatever the type.
type PingRequest struct {
	When json.RawMessage `json:"when"`
}

// PongResponse echoes the client timestamp back.
type PongResponse struct {
	ClientTime json.RawMessage `json:"client_time"`
}

// RoomDeletedNotice is the payload of a room_deleted event.
type RoomDeletedNotice struct {
	Code string `json:"code"`
}

// ErrorNotice is the payload of an error_message event.
type ErrorNotice struct {
	Msg string `json:"msg"`
}

// ServerNotice is the payload of a server_message event.
type ServerNotice struct {
	Msg string `json:"msg"`
}
