package roll

import (
	"github.com/cory-johannsen/coinclash/internal/game/dice"
)

// Result is one sanity-adjusted die roll.
//
// Invariant: Total == Base + Value; 1 <= Value <= Faces.
type Result struct {
	Base  int
	Faces int
	Value int
	Total int
}

// RollDice applies the sanity modifier and rolls the adjusted die once.
//
// Precondition: src must be non-nil.
// Postcondition: result.Total == result.Base + result.Value.
func RollDice(src dice.Source, basePower, dicePower, sanity int) Result {
	base, faces := ApplySanityModifier(sanity, basePower, dicePower)
	v := dice.Die(src, faces)
	return Result{Base: base, Faces: faces, Value: v, Total: base + v}
}
