package service

import (
	"time"

	"github.com/partyrooms/server/lobby/store"
)

// RoomSnapshot is the public view of a room, as broadcast to clients and
// returned by the REST API.
type RoomSnapshot struct {
	Code       string    `json:"code"`
	Players    []string  `json:"players"`
	MaxPlayers int       `json:"max_players"`
	IsFull     bool      `json:"is_full"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats summarizes the live state of the service.
type Stats struct {
	Rooms       int `json:"rooms"`
	Players     int `json:"players"`
	Connections int `json:"connections"`
}

func toSnapshot(s store.Snapshot) *RoomSnapshot {
	return &RoomSnapshot{
		Code:       s.Code,
		Players:    s.Players,
		MaxPlayers: s.MaxPlayers,
		IsFull:     s.IsFull,
		CreatedAt:  s.CreatedAt,
	}
}
