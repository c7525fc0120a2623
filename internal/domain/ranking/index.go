// Package ranking implements the leaderboard index: a rank-augmented skip list
// keyed by (score DESC, arrival ASC) plus a name index for O(1) key lookups.
//
// Every forward link carries a span, the number of base-level positions it
// advances, so the sum of spans walked from the head to a node is that node's
// 1-based rank. This answers rank and rank-range queries in O(log n) expected
// time without a separate positional index.
//
// An Index is not safe for concurrent use. Read operations reuse internal
// scratch buffers, so even RankOf must be serialized with writers.
package ranking

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
)

const (
	// DefaultMaxLevel is the level cap used when WithMaxLevel is not given.
	DefaultMaxLevel = 16
	// MaxLevelLimit bounds WithMaxLevel.
	MaxLevelLimit = 64

	pcgStream = 0x9e3779b97f4a7c15
)

// Ranked is one leaderboard row as returned by queries.
type Ranked struct {
	Rank  int
	Name  string
	Score float64
}

// Index is an ordered leaderboard.
type Index struct {
	nodes    []node // arena; nodes[headRef] is the head sentinel
	free     []ref  // recycled arena slots
	names    map[string]key
	level    int // number of levels currently in use
	maxLevel int
	size     int
	ties     uint64 // last tie-breaker handed out
	src      rand.Source

	// scratch for locate, sized maxLevel
	update []ref
	rank   []int
}

// New constructs an empty index.
func New(opts ...Option) *Index {
	x := &Index{
		maxLevel: DefaultMaxLevel,
		level:    1,
		names:    make(map[string]key),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.src == nil {
		x.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	x.nodes = []node{{key: key{score: math.Inf(1)}, links: make([]link, x.maxLevel)}}
	x.update = make([]ref, x.maxLevel)
	x.rank = make([]int, x.maxLevel)
	return x
}

// Size returns the number of entries.
func (x *Index) Size() int { return x.size }

// Level returns the number of levels currently in use.
func (x *Index) Level() int { return x.level }

// MaxLevel returns the configured level cap.
func (x *Index) MaxLevel() int { return x.maxLevel }

// Contains reports whether name has an entry.
func (x *Index) Contains(name string) bool {
	_, ok := x.names[name]
	return ok
}

// Upsert sets the score for name. A new name receives the next tie-breaker; an
// existing name keeps its original one, so it stays ahead of entries that
// arrived later with the same score. Upsert panics on a NaN score.
func (x *Index) Upsert(name string, score float64) {
	if math.IsNaN(score) {
		panic(fmt.Errorf("upsert %q: %w", name, ErrNaNScore))
	}
	if k, ok := x.names[name]; ok {
		if k.score == score {
			return
		}
		x.unlink(name, k)
		x.insert(name, key{score: score, tie: k.tie})
		return
	}
	x.ties++
	x.insert(name, key{score: score, tie: x.ties})
}

// Remove deletes name and reports whether it was present.
func (x *Index) Remove(name string) bool {
	k, ok := x.names[name]
	if !ok {
		return false
	}
	x.unlink(name, k)
	return true
}

// RankOf returns the score and 1-based rank of name.
func (x *Index) RankOf(name string) (score float64, rank int, ok bool) {
	k, ok := x.names[name]
	if !ok {
		return 0, 0, false
	}
	x.locate(k)
	return k.score, x.rank[0] + 1, true
}

// Top returns a sequence over the best min(n, Size()) entries. Each iteration
// walks from the head again. The index must not be mutated while iterating.
func (x *Index) Top(n int) iter.Seq[Ranked] {
	return func(yield func(Ranked) bool) {
		x.walk(x.nodes[headRef].links[0].next, 1, n, yield)
	}
}

// TopN collects Top(n) into a slice.
func (x *Index) TopN(n int) []Ranked {
	return collect(x.Top(n), min(max(n, 0), x.size))
}

// ByRank returns the entry at the given 1-based rank.
func (x *Index) ByRank(rank int) (Ranked, bool) {
	if rank < 1 || rank > x.size {
		return Ranked{}, false
	}
	n := &x.nodes[x.seek(rank)]
	return Ranked{Rank: rank, Name: n.name, Score: n.key.score}, true
}

// Range returns a sequence over ranks start..stop inclusive, clamped to the
// populated ranks. The start is found by descending along spans.
func (x *Index) Range(start, stop int) iter.Seq[Ranked] {
	return func(yield func(Ranked) bool) {
		start, stop := max(start, 1), min(stop, x.size)
		if start > stop {
			return
		}
		x.walk(x.seek(start), start, stop-start+1, yield)
	}
}

// Levels lists the entries linked at each level, top level first. Ranks are
// derived from the spans walked on that level.
func (x *Index) Levels() [][]Ranked {
	out := make([][]Ranked, 0, x.level)
	for i := x.level - 1; i >= 0; i-- {
		var row []Ranked
		rank := 0
		for l := x.nodes[headRef].links[i]; l.next != nilRef; l = x.nodes[l.next].links[i] {
			rank += l.span
			n := &x.nodes[l.next]
			row = append(row, Ranked{Rank: rank, Name: n.name, Score: n.key.score})
		}
		out = append(out, row)
	}
	return out
}

func (x *Index) walk(cur ref, rank, n int, yield func(Ranked) bool) {
	for ; n > 0 && cur != nilRef; n-- {
		nd := &x.nodes[cur]
		next := nd.links[0].next
		if !yield(Ranked{Rank: rank, Name: nd.name, Score: nd.key.score}) {
			return
		}
		cur = next
		rank++
	}
}

// locate fills update[i] with the last node at level i strictly better than k,
// and rank[i] with the rank of that node.
func (x *Index) locate(k key) {
	cur := headRef
	for i := x.level - 1; i >= 0; i-- {
		if i == x.level-1 {
			x.rank[i] = 0
		} else {
			x.rank[i] = x.rank[i+1]
		}
		for {
			l := x.nodes[cur].links[i]
			if l.next == nilRef || !x.nodes[l.next].key.better(k) {
				break
			}
			x.rank[i] += l.span
			cur = l.next
		}
		x.update[i] = cur
	}
}

// seek returns the node at rank, which must be within 1..size.
func (x *Index) seek(rank int) ref {
	cur, traversed := headRef, 0
	for i := x.level - 1; i >= 0; i-- {
		for {
			l := x.nodes[cur].links[i]
			if l.next == nilRef || traversed+l.span > rank {
				break
			}
			traversed += l.span
			cur = l.next
		}
		if traversed == rank {
			return cur
		}
	}
	panic(fmt.Errorf("%w: rank %d unreachable with size %d", ErrCorrupted, rank, x.size))
}

func (x *Index) insert(name string, k key) {
	x.locate(k)

	lvl := randomLevel(x.src, x.maxLevel)
	if lvl > x.level {
		for i := x.level; i < lvl; i++ {
			x.rank[i] = 0
			x.update[i] = headRef
			x.nodes[headRef].links[i] = link{span: x.size}
		}
		x.level = lvl
	}

	n := x.alloc(name, k, lvl)
	links := x.nodes[n].links
	for i := 0; i < lvl; i++ {
		prev := &x.nodes[x.update[i]].links[i]
		consumed := x.rank[0] - x.rank[i]
		links[i] = link{next: prev.next, span: prev.span - consumed}
		*prev = link{next: n, span: consumed + 1}
	}
	for i := lvl; i < x.level; i++ {
		x.nodes[x.update[i]].links[i].span++
	}

	x.names[name] = k
	x.size++
}

func (x *Index) unlink(name string, k key) {
	x.locate(k)

	target := x.nodes[x.update[0]].links[0].next
	if target == nilRef || x.nodes[target].name != name || x.nodes[target].key != k {
		panic(fmt.Errorf("%w: %q missing at its indexed position", ErrCorrupted, name))
	}

	tl := x.nodes[target].links
	for i := 0; i < x.level; i++ {
		prev := &x.nodes[x.update[i]].links[i]
		if prev.next == target {
			prev.span += tl[i].span - 1
			prev.next = tl[i].next
		} else {
			prev.span--
		}
	}
	for x.level > 1 && x.nodes[headRef].links[x.level-1].next == nilRef {
		x.level--
	}

	delete(x.names, name)
	x.size--
	x.release(target)
}

func (x *Index) alloc(name string, k key, lvl int) ref {
	if last := len(x.free) - 1; last >= 0 {
		r := x.free[last]
		x.free = x.free[:last]
		n := &x.nodes[r]
		n.name, n.key = name, k
		if cap(n.links) >= lvl {
			n.links = n.links[:lvl]
			clear(n.links)
		} else {
			n.links = make([]link, lvl)
		}
		return r
	}
	x.nodes = append(x.nodes, node{name: name, key: k, links: make([]link, lvl)})
	return ref(len(x.nodes) - 1)
}

func (x *Index) release(r ref) {
	x.nodes[r] = node{links: x.nodes[r].links[:0]}
	x.free = append(x.free, r)
}

// randomLevel draws a level in 1..maxLevel, promoting one level per odd draw
// from src. Each promotion has probability 1/2.
func randomLevel(src rand.Source, maxLevel int) int {
	lvl := 1
	for lvl < maxLevel && src.Uint64()&1 == 1 {
		lvl++
	}
	return lvl
}

func collect(seq iter.Seq[Ranked], capacity int) []Ranked {
	out := make([]Ranked, 0, capacity)
	for r := range seq {
		out = append(out, r)
	}
	return out
}
