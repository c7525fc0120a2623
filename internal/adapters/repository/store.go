// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"

	"github.com/okian/rankboard/internal/domain/types"
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Stats describes the shape of the underlying index.
type Stats struct {
	Entries  int
	Levels   int
	MaxLevel int
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Upsert sets the score for name, keeping its original arrival order on
	// updates. Returns true if name was not present before.
	Upsert(ctx context.Context, name string, score float64) (bool, error)

	// Remove deletes name. Returns false if it was not present.
	Remove(ctx context.Context, name string) (bool, error)

	// Rank returns the current rank and score for name.
	// Returns ErrNotFound if the name is unknown.
	Rank(ctx context.Context, name string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then arrival.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Range returns the entries ranked start..stop inclusive.
	Range(ctx context.Context, start, stop int) ([]Entry, error)

	// Levels lists the entries linked at each skip list level, top level first.
	Levels(ctx context.Context) [][]Entry

	// Count returns the number of entries in the leaderboard.
	Count(ctx context.Context) int

	// Stats reports entry and level counts.
	Stats(ctx context.Context) Stats
}
