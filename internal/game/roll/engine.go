package roll

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// DefaultMaxRerolls bounds the tie-reroll loop of a dice clash.
const DefaultMaxRerolls = 100

// ErrTieStreak is returned when a dice clash keeps tying past the reroll bound.
var ErrTieStreak = errors.New("dice clash tied on every reroll")

// Exchange is one simultaneous roll by both sides.
type Exchange struct {
	A Result
	B Result
}

// Tied reports whether both totals match.
func (x Exchange) Tied() bool { return x.A.Total == x.B.Total }

// Report is the structured record of a dice clash.
type Report struct {
	ID        uuid.UUID
	Cancelled bool
	A         duel.Contestant
	B         duel.Contestant
	// Exchanges holds every roll, ties first; the last one is decisive.
	Exchanges []Exchange
	Winner    duel.Side
}

// Final returns the decisive exchange.
//
// Precondition: len(r.Exchanges) > 0.
func (r Report) Final() Exchange {
	return r.Exchanges[len(r.Exchanges)-1]
}

// Rerolls returns how many tied exchanges preceded the decisive one.
func (r Report) Rerolls() int {
	if len(r.Exchanges) == 0 {
		return 0
	}
	return len(r.Exchanges) - 1
}

// Engine resolves dice rolls and dice clashes.
type Engine struct {
	src        dice.Source
	logger     *zap.Logger
	maxRerolls int
}

// NewEngine creates a dice Engine.
//
// Precondition: src and logger must be non-nil. maxRerolls <= 0 selects DefaultMaxRerolls.
func NewEngine(src dice.Source, logger *zap.Logger, maxRerolls int) *Engine {
	if maxRerolls <= 0 {
		maxRerolls = DefaultMaxRerolls
	}
	return &Engine{src: src, logger: logger, maxRerolls: maxRerolls}
}

// Roll validates s and rolls it once at sanity.
//
// Postcondition: Returns a *skill.ValidationError before drawing randomness
// if s is malformed.
func (e *Engine) Roll(s skill.DiceSkill, sanity int) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	return RollDice(e.src, s.BasePower, s.DicePower, sanity), nil
}

// ResolveDiceClash rolls both sides together until one total is strictly
// higher. Every reroll uses the same sanity-adjusted parameters.
//
// Postcondition: Returns a Report whose final exchange is not tied, a
// *skill.ValidationError before any roll, or ErrTieStreak once
// maxRerolls rerolls have all tied.
func (e *Engine) ResolveDiceClash(a, b duel.Contestant) (Report, error) {
	if err := a.RequireKind(skill.KindDice); err != nil {
		return Report{}, err
	}
	if err := b.RequireKind(skill.KindDice); err != nil {
		return Report{}, err
	}
	sa, sb := a.Record.Dice(), b.Record.Dice()
	rep := Report{ID: uuid.New(), A: a, B: b}

	for attempt := 0; attempt <= e.maxRerolls; attempt++ {
		x := Exchange{
			A: RollDice(e.src, sa.BasePower, sa.DicePower, a.Sanity),
			B: RollDice(e.src, sb.BasePower, sb.DicePower, b.Sanity),
		}
		rep.Exchanges = append(rep.Exchanges, x)
		if x.Tied() {
			continue
		}
		rep.Winner = duel.SideA
		if x.B.Total > x.A.Total {
			rep.Winner = duel.SideB
		}
		e.logger.Info("dice clash resolved",
			zap.String("clash_id", rep.ID.String()),
			zap.String("a", a.UserID),
			zap.String("b", b.UserID),
			zap.Int("total_a", x.A.Total),
			zap.Int("total_b", x.B.Total),
			zap.Int("rerolls", rep.Rerolls()),
			zap.Stringer("winner", rep.Winner),
		)
		return rep, nil
	}

	e.logger.Warn("dice clash tie streak",
		zap.String("clash_id", rep.ID.String()),
		zap.Int("max_rerolls", e.maxRerolls),
	)
	return Report{}, fmt.Errorf("clash %s after %d rerolls: %w", rep.ID, e.maxRerolls, ErrTieStreak)
}

// ResolveChallenge waits for a challenger on join and then runs ResolveDiceClash.
//
// Postcondition: Returns a cancelled Report with a nil error when nobody
// joined, or the collaborator's error without rolling.
func (e *Engine) ResolveChallenge(ctx context.Context, a duel.Contestant, join <-chan duel.Join) (Report, error) {
	if err := a.RequireKind(skill.KindDice); err != nil {
		return Report{}, err
	}
	b, err := duel.Await(ctx, join)
	if err != nil {
		return Report{}, err
	}
	if b == nil {
		e.logger.Info("dice clash cancelled", zap.String("a", a.UserID))
		return Report{ID: uuid.New(), Cancelled: true, A: a}, nil
	}
	return e.ResolveDiceClash(a, *b)
}
