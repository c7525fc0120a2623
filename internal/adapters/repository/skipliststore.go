// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/okian/rankboard/internal/domain/ranking"
	"github.com/okian/rankboard/pkg/metrics"
)

// SkipListStore is the in-memory Store backed by a ranking.Index.
//
// The index has no internal synchronization and its read path reuses scratch
// buffers, so every call, reads included, takes the one exclusive lock.
type SkipListStore struct {
	mu        sync.Mutex
	idx       *ranking.Index
	indexOpts []ranking.Option
}

// NewSkipListStore constructs a store with configuration options.
func NewSkipListStore(_ context.Context, opts ...Option) *SkipListStore {
	s := &SkipListStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.idx = ranking.New(s.indexOpts...)
	s.indexOpts = nil

	metrics.UpdateEntriesTotal(0)
	metrics.UpdateLevels(s.idx.Level(), s.idx.MaxLevel())
	return s
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *SkipListStore) Upsert(_ context.Context, name string, score float64) (bool, error) {
	start := time.Now()
	defer observe("upsert", start)

	if strings.TrimSpace(name) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_name")
		return false, ErrInvalidName
	}
	if math.IsNaN(score) {
		metrics.RecordErrorByComponent("repository", "invalid_score")
		return false, ErrInvalidScore
	}

	s.mu.Lock()
	created := !s.idx.Contains(name)
	s.idx.Upsert(name, score)
	size, level, maxLevel := s.idx.Size(), s.idx.Level(), s.idx.MaxLevel()
	s.mu.Unlock()

	// Update metrics outside lock
	if created {
		metrics.RecordOperation("upsert", "inserted")
	} else {
		metrics.RecordOperation("upsert", "updated")
	}
	metrics.UpdateEntriesTotal(size)
	metrics.UpdateLevels(level, maxLevel)
	return created, nil
}

// Remove implements Store.Remove in O(log n) expected time.
func (s *SkipListStore) Remove(_ context.Context, name string) (bool, error) {
	start := time.Now()
	defer observe("remove", start)

	if strings.TrimSpace(name) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_name")
		return false, ErrInvalidName
	}

	s.mu.Lock()
	removed := s.idx.Remove(name)
	size, level, maxLevel := s.idx.Size(), s.idx.Level(), s.idx.MaxLevel()
	s.mu.Unlock()

	if !removed {
		metrics.RecordOperation("remove", "missing")
		return false, nil
	}
	metrics.RecordOperation("remove", "removed")
	metrics.UpdateEntriesTotal(size)
	metrics.UpdateLevels(level, maxLevel)
	return true, nil
}

// Rank returns the current rank and score for name in O(log n).
func (s *SkipListStore) Rank(_ context.Context, name string) (Entry, error) {
	start := time.Now()
	defer observe("rank", start)

	s.mu.Lock()
	score, rank, ok := s.idx.RankOf(name)
	s.mu.Unlock()

	if !ok {
		metrics.RecordOperation("rank", "not_found")
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	metrics.RecordOperation("rank", "found")
	return Entry{Rank: rank, Name: name, Score: score}, nil
}

// TopN returns the top n entries. n == 0 yields an empty result.
func (s *SkipListStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer observe("top", start)

	if n < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, min(n, s.idx.Size()))
	for r := range s.idx.Top(n) {
		out = append(out, toEntry(r))
	}
	metrics.RecordOperation("top", "ok")
	return out, nil
}

// Range returns the entries ranked start..stop inclusive; ranks past the end
// are dropped.
func (s *SkipListStore) Range(_ context.Context, start, stop int) ([]Entry, error) {
	began := time.Now()
	defer observe("range", began)

	if start < 1 || stop < start {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for r := range s.idx.Range(start, stop) {
		out = append(out, toEntry(r))
	}
	metrics.RecordOperation("range", "ok")
	return out, nil
}

// Levels lists the entries linked at each level, top level first.
func (s *SkipListStore) Levels(_ context.Context) [][]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	levels := s.idx.Levels()
	out := make([][]Entry, len(levels))
	for i, row := range levels {
		out[i] = make([]Entry, len(row))
		for j, r := range row {
			out[i][j] = toEntry(r)
		}
	}
	return out
}

// Count returns the total number of entries.
func (s *SkipListStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Size()
}

// Stats reports entry and level counts.
func (s *SkipListStore) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Entries: s.idx.Size(), Levels: s.idx.Level(), MaxLevel: s.idx.MaxLevel()}
}

func toEntry(r ranking.Ranked) Entry {
	return Entry{Rank: r.Rank, Name: r.Name, Score: r.Score}
}

func observe(op string, start time.Time) {
	metrics.RecordOperationLatency(op, float64(time.Since(start).Microseconds()))
}
