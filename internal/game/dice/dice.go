// Package dice provides the randomness abstraction shared by the coin and
// dice resolution engines.
package dice

import "fmt"

// Source is the randomness provider for every flip and roll.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Between returns a uniform integer in the closed range [lo, hi].
//
// Precondition: src must be non-nil; lo <= hi.
// Postcondition: lo <= result <= hi.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("dice: Between called with lo %d > hi %d", lo, hi))
	}
	return lo + src.Intn(hi-lo+1)
}

// Percent draws a uniform integer in [1, 100].
//
// Postcondition: 1 <= result <= 100.
func Percent(src Source) int {
	return Between(src, 1, 100)
}

// Die rolls a single die with the given number of faces.
//
// Precondition: faces >= 1.
// Postcondition: 1 <= result <= faces.
func Die(src Source, faces int) int {
	return Between(src, 1, faces)
}
