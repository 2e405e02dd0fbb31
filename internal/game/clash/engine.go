package clash

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/game/coin"
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// DefaultMaxRounds caps a clash whose rounds keep tying.
const DefaultMaxRounds = 1000

// Engine resolves coin clashes. It holds no per-clash state, so one Engine
// may serve any number of concurrent clashes provided its Source is safe for
// concurrent use.
type Engine struct {
	src       dice.Source
	logger    *zap.Logger
	maxRounds int
}

// NewEngine creates a clash Engine.
//
// Precondition: src and logger must be non-nil. maxRounds <= 0 selects DefaultMaxRounds.
func NewEngine(src dice.Source, logger *zap.Logger, maxRounds int) *Engine {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Engine{src: src, logger: logger, maxRounds: maxRounds}
}

// side is the transient per-contestant clash state.
type side struct {
	c                  duel.Contestant
	s                  skill.CoinSkill
	sanity             int
	pool               coin.Pool
	removedUnbreakable int
}

func newSide(c duel.Contestant) *side {
	s := c.Record.Coin()
	return &side{
		c:      c,
		s:      s,
		sanity: skill.ClampSanity(c.Sanity),
		pool:   coin.NewPool(s.NormalCoins(), s.UnbreakableCoins),
	}
}

func (sd *side) flip(src dice.Source, pool coin.Pool) coin.Result {
	return coin.FlipPool(src, pool, sd.s.BasePower, sd.s.CoinPower, sd.sanity)
}

// Resolve runs a full clash between a and b.
//
// Precondition: both contestants carry coin skills.
// Postcondition: Returns a *skill.ValidationError before drawing randomness if
// either skill is malformed. Otherwise each non-tied round removes exactly one
// coin, always index 0 of the loser's pool, and the clash ends as soon as a
// pool empties or the round cap is reached.
func (e *Engine) Resolve(a, b duel.Contestant) (Report, error) {
	if err := a.RequireKind(skill.KindCoin); err != nil {
		return Report{}, err
	}
	if err := b.RequireKind(skill.KindCoin); err != nil {
		return Report{}, err
	}

	sa, sb := newSide(a), newSide(b)
	rep := Report{ID: uuid.New(), A: a, B: b}

	if len(sa.pool) == 0 && len(sb.pool) == 0 {
		rep.Outcome = OutcomeTie
		e.logSummary(rep)
		return rep, nil
	}

	for len(sa.pool) > 0 && len(sb.pool) > 0 {
		if len(rep.Rounds) >= e.maxRounds {
			rep.Outcome = OutcomeStalemate
			rep.RemovedUnbreakableA = sa.removedUnbreakable
			rep.RemovedUnbreakableB = sb.removedUnbreakable
			e.logSummary(rep)
			return rep, nil
		}
		rep.Rounds = append(rep.Rounds, e.round(len(rep.Rounds)+1, sa, sb))
	}

	winner, loser := sa, sb
	rep.Winner, rep.Loser = duel.SideA, duel.SideB
	if len(sa.pool) == 0 {
		winner, loser = sb, sa
		rep.Winner, rep.Loser = duel.SideB, duel.SideA
	}
	rep.Outcome = OutcomeDecided
	rep.RemovedUnbreakableA = sa.removedUnbreakable
	rep.RemovedUnbreakableB = sb.removedUnbreakable
	rep.WinnerRemaining = len(winner.pool)

	// The winner recovers its own eliminated unbreakable coins.
	bonusPool := append(winner.pool.Clone(), coin.UnbreakablePool(winner.removedUnbreakable)...)
	bonus := winner.flip(e.src, bonusPool)
	rep.WinnerBonus = &bonus

	// The loser always flips its original unbreakable coins, however many it lost.
	if n := loser.s.UnbreakableCoins; n > 0 {
		consolation := loser.flip(e.src, coin.UnbreakablePool(n))
		rep.LoserConsolation = &consolation
	}

	e.logSummary(rep)
	return rep, nil
}

// round flips every remaining coin on both sides and eliminates the loser's
// leftmost coin.
func (e *Engine) round(n int, sa, sb *side) Round {
	ra := sa.flip(e.src, sa.pool)
	rb := sb.flip(e.src, sb.pool)
	r := Round{Number: n, A: ra, B: rb}

	var loser *side
	switch {
	case ra.TotalPower > rb.TotalPower:
		loser, r.Loser = sb, duel.SideB
	case rb.TotalPower > ra.TotalPower:
		loser, r.Loser = sa, duel.SideA
	}
	if loser != nil {
		r.Removed = loser.pool.PopFront()
		if r.Removed == coin.Unbreakable {
			loser.removedUnbreakable++
		}
	}
	r.PoolSizeA, r.PoolSizeB = len(sa.pool), len(sb.pool)

	e.logger.Debug("clash round",
		zap.Int("round", n),
		zap.Int("total_a", ra.TotalPower),
		zap.Int("total_b", rb.TotalPower),
		zap.Stringer("loser", r.Loser),
	)
	return r
}

// ResolveChallenge waits for a challenger on join and then runs Resolve.
// The wait itself, including its timeout, belongs to whoever feeds join.
//
// Postcondition: Returns a Report with OutcomeCancelled and a nil error when
// nobody joined; the collaborator's error (for example skill.ErrNotFound)
// without resolving anything; or the result of Resolve.
func (e *Engine) ResolveChallenge(ctx context.Context, a duel.Contestant, join <-chan duel.Join) (Report, error) {
	if err := a.RequireKind(skill.KindCoin); err != nil {
		return Report{}, err
	}
	b, err := duel.Await(ctx, join)
	if err != nil {
		return Report{}, err
	}
	if b == nil {
		rep := Report{ID: uuid.New(), Outcome: OutcomeCancelled, A: a}
		e.logSummary(rep)
		return rep, nil
	}
	return e.Resolve(a, *b)
}

func (e *Engine) logSummary(rep Report) {
	e.logger.Info("clash resolved",
		zap.String("clash_id", rep.ID.String()),
		zap.Stringer("outcome", rep.Outcome),
		zap.String("a", rep.A.UserID),
		zap.String("b", rep.B.UserID),
		zap.Int("rounds", len(rep.Rounds)),
		zap.Stringer("winner", rep.Winner),
	)
}
