// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
