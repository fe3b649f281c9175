package service

import "errors"

var (
	// ErrRoomNotFound is returned for joins or lookups with an unknown code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when a room is at capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrAlreadyInRoom is returned for create/join while the connection is
	// already a member of a room.
	ErrAlreadyInRoom = errors.New("connection already in a room")

	// ErrNotInRoom is returned for a leave without a matching membership.
	ErrNotInRoom = errors.New("connection is not in that room")
)
