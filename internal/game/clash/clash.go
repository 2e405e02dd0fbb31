// Package clash implements the multi-round coin elimination duel.
package clash

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/coinclash/internal/game/coin"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
)

// Outcome classifies how a clash ended.
type Outcome int

const (
	// OutcomeDecided means one pool emptied and the other side won.
	OutcomeDecided Outcome = iota
	// OutcomeTie means both contestants entered with empty pools.
	OutcomeTie
	// OutcomeStalemate means the round cap was reached with both pools standing.
	OutcomeStalemate
	// OutcomeCancelled means no challenger joined.
	OutcomeCancelled
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeDecided:
		return "decided"
	case OutcomeTie:
		return "tie"
	case OutcomeStalemate:
		return "stalemate"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Round records one elimination round.
type Round struct {
	Number    int
	A         coin.Result
	B         coin.Result
	Loser     duel.Side // SideNone on a tied round
	Removed   coin.Tag  // meaningful only when Loser != SideNone
	PoolSizeA int       // after elimination
	PoolSizeB int
}

// Tied reports whether no coin was removed this round.
func (r Round) Tied() bool { return r.Loser == duel.SideNone }

// Report is the full structured record of a clash. The caller owns it.
type Report struct {
	ID      uuid.UUID
	Outcome Outcome
	A       duel.Contestant
	B       duel.Contestant
	Rounds  []Round

	Winner duel.Side
	Loser  duel.Side

	// RemovedUnbreakableA/B count unbreakable coins each side lost in rounds.
	RemovedUnbreakableA int
	RemovedUnbreakableB int
	// WinnerRemaining is the size of the winner's pool when the duel ended.
	WinnerRemaining int

	// WinnerBonus is nil unless Outcome == OutcomeDecided.
	WinnerBonus *coin.Result
	// LoserConsolation is nil unless the loser entered with unbreakable coins.
	LoserConsolation *coin.Result
}

// Contestant returns the contestant on side s.
//
// Precondition: s is SideA or SideB.
func (r Report) Contestant(s duel.Side) duel.Contestant {
	if s == duel.SideB {
		return r.B
	}
	return r.A
}

// RemovedUnbreakable returns the removed-unbreakable count for side s.
func (r Report) RemovedUnbreakable(s duel.Side) int {
	switch s {
	case duel.SideA:
		return r.RemovedUnbreakableA
	case duel.SideB:
		return r.RemovedUnbreakableB
	default:
		return 0
	}
}
