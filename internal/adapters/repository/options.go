// Package repository defines the ranking store interface and errors.
package repository

import (
	"math/rand/v2"

	"github.com/okian/rankboard/internal/domain/ranking"
)

// Option applies a configuration option to the SkipListStore.
type Option func(*SkipListStore)

// WithMaxLevel caps skip list promotion.
func WithMaxLevel(n int) Option {
	return func(s *SkipListStore) {
		s.indexOpts = append(s.indexOpts, ranking.WithMaxLevel(n))
	}
}

// WithSeed makes level draws reproducible. Zero keeps a random seed.
func WithSeed(seed uint64) Option {
	return func(s *SkipListStore) {
		s.indexOpts = append(s.indexOpts, ranking.WithSeed(seed))
	}
}

// WithLevelSource sets the random source for level draws.
func WithLevelSource(src rand.Source) Option {
	return func(s *SkipListStore) {
		s.indexOpts = append(s.indexOpts, ranking.WithSource(src))
	}
}
