package coin

import (
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// HeadChance returns the percentage chance a coin lands Head at sanity.
//
// Postcondition: 5 <= result <= 95.
func HeadChance(sanity int) int {
	return 50 + skill.ClampSanity(sanity)
}

// FlipPool flips every coin in pool once, in order, at the given sanity.
// This single routine backs solo flips, clash rounds, and post-clash bonuses.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Sequence) == len(pool); tags preserved in order;
// result.TotalPower == base + coinPower * result.Heads().
func FlipPool(src dice.Source, pool Pool, base, coinPower, sanity int) Result {
	chance := HeadChance(sanity)
	res := Result{
		TotalPower: base,
		Sequence:   make([]Outcome, 0, len(pool)),
	}
	for _, tag := range pool {
		face := Tail
		if dice.Percent(src) <= chance {
			face = Head
			res.TotalPower += coinPower
		}
		res.Sequence = append(res.Sequence, Outcome{Tag: tag, Face: face})
	}
	return res
}

// ResolveFlip performs a solo flip of every coin in s.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a *skill.ValidationError before drawing any randomness
// if s is malformed; otherwise len(result.Sequence) == s.TotalCoins with
// normal coins first.
func ResolveFlip(src dice.Source, s skill.CoinSkill, sanity int) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	pool := NewPool(s.NormalCoins(), s.UnbreakableCoins)
	return FlipPool(src, pool, s.BasePower, s.CoinPower, sanity), nil
}
