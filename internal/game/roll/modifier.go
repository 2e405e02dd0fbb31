// Package roll implements the dice-based resolution variant, where sanity
// trades die faces for flat power.
package roll

import "github.com/cory-johannsen/coinclash/internal/game/skill"

// band is the power and face adjustment for one sanity magnitude range.
type band struct {
	lo, hi int
	power  int
	faces  int
}

// bands are keyed by |sanity|. The top band shifts power by 3 but faces only by 2.
var bands = []band{
	{lo: 1, hi: 20, power: 1, faces: 1},
	{lo: 21, hi: 40, power: 2, faces: 2},
	{lo: 41, hi: 45, power: 3, faces: 2},
}

func bandFor(magnitude int) (power, faces int) {
	for _, b := range bands {
		if magnitude >= b.lo && magnitude <= b.hi {
			return b.power, b.faces
		}
	}
	return 0, 0
}

// ApplySanityModifier returns the sanity-adjusted base power and face count.
// Positive sanity moves faces into flat power for a normal die; a negative
// dicePower reverses the direction.
//
// Postcondition: modifiedFaces >= 1; sanity 0 returns (basePower, |dicePower|)
// with the same floor applied.
func ApplySanityModifier(sanity, basePower, dicePower int) (modifiedBase, modifiedFaces int) {
	sanity = skill.ClampSanity(sanity)
	faces := dicePower
	if faces < 0 {
		faces = -faces
	}

	dir := 0
	magnitude := sanity
	switch {
	case sanity > 0:
		dir = 1
	case sanity < 0:
		dir = -1
		magnitude = -sanity
	}
	if dicePower < 0 {
		dir = -dir
	}

	p, f := bandFor(magnitude)
	modifiedBase = basePower + dir*p
	modifiedFaces = max(1, faces-dir*f)
	return modifiedBase, modifiedFaces
}
