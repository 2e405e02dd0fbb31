// Package coin implements the weighted coin-flip resolution engine.
package coin

// Tag marks a coin as normal or unbreakable. Unbreakable coins flip with the
// same probability as normal coins; the tag only matters after a clash.
type Tag int

const (
	Normal Tag = iota
	Unbreakable
)

// String returns a short label for the tag.
func (t Tag) String() string {
	switch t {
	case Normal:
		return "normal"
	case Unbreakable:
		return "unbreakable"
	default:
		return "unknown"
	}
}

// Face is the side a coin landed on.
type Face int

const (
	Tail Face = iota
	Head
)

// String returns "head" or "tail".
func (f Face) String() string {
	if f == Head {
		return "head"
	}
	return "tail"
}

// Outcome is one flipped coin.
type Outcome struct {
	Tag  Tag
	Face Face
}

// Pool is an ordered sequence of coin tags. Elimination always removes
// index 0.
type Pool []Tag

// NewPool builds normal coins followed by unbreakable coins.
//
// Precondition: normal >= 0; unbreakable >= 0.
// Postcondition: len(result) == normal + unbreakable.
func NewPool(normal, unbreakable int) Pool {
	p := make(Pool, 0, normal+unbreakable)
	for i := 0; i < normal; i++ {
		p = append(p, Normal)
	}
	for i := 0; i < unbreakable; i++ {
		p = append(p, Unbreakable)
	}
	return p
}

// UnbreakablePool builds a pool of n unbreakable coins.
func UnbreakablePool(n int) Pool {
	return NewPool(0, n)
}

// PopFront removes and returns the leftmost coin.
//
// Precondition: the pool is non-empty.
// Postcondition: len(*p) decreases by exactly one.
func (p *Pool) PopFront() Tag {
	head := (*p)[0]
	*p = (*p)[1:]
	return head
}

// Clone returns an independent copy of the pool.
func (p Pool) Clone() Pool {
	out := make(Pool, len(p))
	copy(out, p)
	return out
}

// Result is the outcome of flipping a pool. It is never mutated after return.
//
// Invariant: TotalPower == base + coinPower * Heads().
type Result struct {
	TotalPower int
	Sequence   []Outcome
}

// Heads counts the coins that landed on Head.
func (r Result) Heads() int {
	n := 0
	for _, o := range r.Sequence {
		if o.Face == Head {
			n++
		}
	}
	return n
}
