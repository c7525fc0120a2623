package ranking

// ref addresses a node slot in the index arena. The head sentinel lives at
// slot 0 and no link ever points back at it, so 0 also serves as the nil link.
type ref int32

const (
	headRef ref = 0
	nilRef  ref = 0
)

// key is the ordering key of an entry: score DESC, then tie ASC.
type key struct {
	score float64
	tie   uint64
}

// better reports whether a ranks strictly ahead of b.
func (a key) better(b key) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.tie < b.tie
}

// link is one forward pointer plus the number of rank positions it advances.
type link struct {
	next ref
	span int
}

type node struct {
	name  string
	key   key
	links []link // one per level the node participates in
}
