package ranking

import "math/rand/v2"

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithMaxLevel caps the number of levels a node may be promoted to.
// Values outside 1..MaxLevelLimit are ignored.
func WithMaxLevel(n int) Option {
	return func(x *Index) {
		if n >= 1 && n <= MaxLevelLimit {
			x.maxLevel = n
		}
	}
}

// WithSource sets the random source used for level draws.
func WithSource(src rand.Source) Option {
	return func(x *Index) {
		if src != nil {
			x.src = src
		}
	}
}

// WithSeed seeds a PCG source for reproducible level layouts. A zero seed is ignored.
func WithSeed(seed uint64) Option {
	return func(x *Index) {
		if seed != 0 {
			x.src = rand.NewPCG(seed, seed^pcgStream)
		}
	}
}
