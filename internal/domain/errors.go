package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a player has no game session yet.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrNotPlaying is returned when an answer arrives outside a running game.
	ErrNotPlaying = errors.New("game is not in progress")
	// ErrUnknownOperation indicates an operation name outside the four supported ones.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidLevel indicates a stored difficulty level outside [0, MaxLevel].
	ErrInvalidLevel = errors.New("invalid difficulty level")
	// ErrPlayerRequired is returned when a call needs a player id and got none.
	ErrPlayerRequired = errors.New("player id required")
)
