package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidName  = errors.New("player name must not be empty")
	ErrInvalidScore = errors.New("score must be a number")
)
