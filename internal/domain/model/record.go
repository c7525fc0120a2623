// Package model contains domain models passed between layers.
package model

// Record is one parsed players-file row headed for the leaderboard.
type Record struct {
	Line  int     // source line, for error reporting
	Name  string  // player name
	Score float64 // parsed score
}
