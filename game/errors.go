package game

import "errors"

// Join failures are surfaced to the requesting client verbatim as a
// join-error message, so these read as user-facing text.
var (
	ErrRoomNotFound   = errors.New("Room not found")
	ErrGameInProgress = errors.New("Game already in progress")
	ErrRoomFull       = errors.New("Room is full (2 player maximum)")
)

var ErrSendBufferFull = errors.New("send-buffer-full")
