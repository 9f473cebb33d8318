package core

import "errors"

var (
	// ErrRoomFull rejects a join to a meeting room that already has two members.
	ErrRoomFull = errors.New("room is full")
	// ErrNotInRoom marks a call from a connection with no room binding.
	// Benign during teardown races; callers log and drop.
	ErrNotInRoom = errors.New("not in a room")
	// ErrUnauthorized rejects a chat join from a non-participant.
	ErrUnauthorized = errors.New("not a participant of this event")
)
