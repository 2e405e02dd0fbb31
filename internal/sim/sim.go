// Package sim runs many independent duels between two skills concurrently
// and tallies the results. Each duel draws from its own seeded source, so a
// run is reproducible regardless of scheduling.
package sim

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// Options configures a simulation run.
type Options struct {
	A     duel.Contestant
	B     duel.Contestant
	Duels int
	// Workers bounds concurrent duels; <= 0 means unbounded.
	Workers int
	Seed    uint64
	// MaxClashRounds and MaxDiceRerolls are passed to the engines.
	MaxClashRounds int
	MaxDiceRerolls int
}

// Summary tallies a run. Rounds counts coin clash rounds or dice exchanges;
// BonusA and BonusB sum the winning side's final power.
type Summary struct {
	Duels      int
	WinsA      int
	WinsB      int
	Ties       int
	Stalemates int
	Rounds     int
	BonusA     int
	BonusB     int
}

// WinRate returns the fraction of duels side s won.
func (s Summary) WinRate(side duel.Side) float64 {
	if s.Duels == 0 {
		return 0
	}
	switch side {
	case duel.SideA:
		return float64(s.WinsA) / float64(s.Duels)
	case duel.SideB:
		return float64(s.WinsB) / float64(s.Duels)
	}
	return 0
}

// MeanRounds returns the average number of rounds per duel.
func (s Summary) MeanRounds() float64 {
	if s.Duels == 0 {
		return 0
	}
	return float64(s.Rounds) / float64(s.Duels)
}

type outcome struct {
	winner duel.Side
	tie    bool
	stall  bool
	rounds int
	bonus  int
}

// Run resolves opts.Duels duels and tallies them.
//
// Precondition: both contestants carry skills of the same kind; logger non-nil.
// Postcondition: Returns the first validation or engine error, or a Summary
// whose counts add up to opts.Duels.
func Run(ctx context.Context, opts Options, logger *zap.Logger) (Summary, error) {
	if opts.A.Record.Kind != opts.B.Record.Kind {
		return Summary{}, fmt.Errorf("simulating %s against %s: %w", opts.A.Record.Kind, opts.B.Record.Kind,
			&skill.ValidationError{Skill: opts.B.Record.Name, Field: "kind", Reason: "must match the opponent"})
	}
	if err := opts.A.Record.Validate(); err != nil {
		return Summary{}, err
	}
	if err := opts.B.Record.Validate(); err != nil {
		return Summary{}, err
	}

	// Engines log only warnings during a run.
	engineLogger := logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))

	results := make([]outcome, opts.Duels)
	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range opts.Duels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src := dice.NewSeededSource(opts.Seed + uint64(i))
			out, err := resolve(src, opts, engineLogger)
			if err != nil {
				return fmt.Errorf("duel %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := Summary{Duels: opts.Duels}
	for _, r := range results {
		sum.Rounds += r.rounds
		switch {
		case r.tie:
			sum.Ties++
		case r.stall:
			sum.Stalemates++
		case r.winner == duel.SideA:
			sum.WinsA++
			sum.BonusA += r.bonus
		case r.winner == duel.SideB:
			sum.WinsB++
			sum.BonusB += r.bonus
		}
	}
	logger.Info("simulation complete",
		zap.String("skill_a", opts.A.Record.Name),
		zap.String("skill_b", opts.B.Record.Name),
		zap.Int("duels", sum.Duels),
		zap.Int("wins_a", sum.WinsA),
		zap.Int("wins_b", sum.WinsB),
		zap.Int("ties", sum.Ties),
		zap.Int("stalemates", sum.Stalemates),
	)
	return sum, nil
}

func resolve(src dice.Source, opts Options, logger *zap.Logger) (outcome, error) {
	if opts.A.Record.Kind == skill.KindDice {
		rep, err := roll.NewEngine(src, logger, opts.MaxDiceRerolls).ResolveDiceClash(opts.A, opts.B)
		if errors.Is(err, roll.ErrTieStreak) {
			return outcome{stall: true}, nil
		}
		if err != nil {
			return outcome{}, err
		}
		final := rep.Final()
		total := final.A.Total
		if rep.Winner == duel.SideB {
			total = final.B.Total
		}
		return outcome{winner: rep.Winner, rounds: len(rep.Exchanges), bonus: total}, nil
	}

	rep, err := clash.NewEngine(src, logger, opts.MaxClashRounds).Resolve(opts.A, opts.B)
	if err != nil {
		return outcome{}, err
	}
	out := outcome{winner: rep.Winner, rounds: len(rep.Rounds)}
	switch rep.Outcome {
	case clash.OutcomeTie:
		out.tie = true
	case clash.OutcomeStalemate:
		out.stall = true
	case clash.OutcomeDecided:
		out.bonus = rep.WinnerBonus.TotalPower
	}
	return out, nil
}
