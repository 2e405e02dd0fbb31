package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/coin"
	"github.com/cory-johannsen/coinclash/internal/game/command"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/lobby"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/session"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// RenderOutcome formats one coin as H or T; unbreakable coins are bracketed.
func RenderOutcome(o coin.Outcome) string {
	face := telnet.Colorize(telnet.Dim, "T")
	if o.Face == coin.Head {
		face = telnet.Colorize(telnet.BrightYellow, "H")
	}
	if o.Tag == coin.Unbreakable {
		return telnet.Colorize(telnet.Cyan, "[") + face + telnet.Colorize(telnet.Cyan, "]")
	}
	return face
}

// RenderTrail formats a flip sequence in draw order.
func RenderTrail(seq []coin.Outcome) string {
	if len(seq) == 0 {
		return telnet.Colorize(telnet.Dim, "(no coins)")
	}
	parts := make([]string, len(seq))
	for i, o := range seq {
		parts[i] = RenderOutcome(o)
	}
	return strings.Join(parts, " ")
}

// RenderFlip formats a solo flip.
//
// Postcondition: The last line carries the final power.
func RenderFlip(actor, skillName string, sanity int, res coin.Result) []string {
	return []string{
		telnet.Colorf(telnet.BrightWhite, "%s flips %s", actor, skillName) +
			telnet.Colorf(telnet.Dim, " (sanity %d, %d%% heads)", sanity, coin.HeadChance(sanity)),
		"  " + RenderTrail(res.Sequence),
		telnet.Colorf(telnet.BrightGreen, "  Final Power: %d", res.TotalPower),
	}
}

// RenderRoll formats a solo dice roll.
func RenderRoll(actor, skillName string, sanity int, r roll.Result) []string {
	return []string{
		telnet.Colorf(telnet.BrightWhite, "%s rolls %s", actor, skillName) +
			telnet.Colorf(telnet.Dim, " (sanity %d)", sanity),
		"  " + renderDie(r),
	}
}

func renderDie(r roll.Result) string {
	return fmt.Sprintf("%d + d%d %s %s = %s",
		r.Base, r.Faces,
		telnet.Colorize(telnet.Dim, "rolled"),
		telnet.Colorf(telnet.BrightYellow, "%d", r.Value),
		telnet.Colorf(telnet.BrightGreen, "%d", r.Total),
	)
}

// RenderChallengeOpened announces a new challenge with the command to join it.
func RenderChallengeOpened(c *lobby.Challenge, window time.Duration) []string {
	title := "COMBAT START - CLASH"
	if c.Owner.Record.Kind == skill.KindDice {
		title = "COMBAT START - DICE CLASH"
	}
	return []string{
		telnet.Colorize(telnet.Bold+telnet.BrightRed, title),
		fmt.Sprintf("%s uses %s! (sanity %d)", c.Owner.Name, telnet.Colorize(telnet.BrightWhite, c.Owner.Record.Name), c.Owner.Sanity),
		telnet.Colorf(telnet.Yellow, "Waiting for an opponent... type 'join %s <sanity> <skill>' within %s.", c.ShortID(), window),
	}
}

// RenderClash formats a coin clash report round by round.
func RenderClash(rep clash.Report) []string {
	short := rep.ID.String()[:8]
	switch rep.Outcome {
	case clash.OutcomeCancelled:
		return []string{telnet.Colorf(telnet.Yellow,
			"No one challenged %s's %s in time. Clash %s cancelled.", rep.A.Name, rep.A.Record.Name, short)}
	case clash.OutcomeTie:
		return []string{telnet.Colorf(telnet.Yellow,
			"Clash %s: %s and %s have no coins to clash. It's a tie!", short, rep.A.Name, rep.B.Name)}
	}

	lines := []string{telnet.Colorf(telnet.Bold+telnet.BrightRed, "CLASH %s: %s (%s) vs %s (%s)",
		short, rep.A.Name, rep.A.Record.Name, rep.B.Name, rep.B.Record.Name)}

	for _, r := range rep.Rounds {
		lines = append(lines,
			telnet.Colorf(telnet.BrightWhite, "Clash Step %d:", r.Number),
			fmt.Sprintf("  %s: %s (%d)", rep.A.Name, RenderTrail(r.A.Sequence), r.A.TotalPower),
			fmt.Sprintf("  %s: %s (%d)", rep.B.Name, RenderTrail(r.B.Sequence), r.B.TotalPower),
		)
		if r.Tied() {
			lines = append(lines, telnet.Colorize(telnet.Yellow, "  It's a tie!"))
			continue
		}
		lost := "a coin"
		if r.Removed == coin.Unbreakable {
			lost = "an unbreakable coin"
		}
		lines = append(lines, telnet.Colorf(telnet.Red, "  Loser of this step: %s (loses %s)", rep.Contestant(r.Loser).Name, lost))
	}

	if rep.Outcome == clash.OutcomeStalemate {
		return append(lines, telnet.Colorf(telnet.Yellow,
			"The clash stalls after %d steps. No winner.", len(rep.Rounds)))
	}

	winner, loser := rep.Contestant(rep.Winner), rep.Contestant(rep.Loser)
	if rep.WinnerBonus != nil {
		lines = append(lines,
			telnet.Colorf(telnet.BrightGreen, "WINNER %s flips all remaining coins:", winner.Name),
			"  "+RenderTrail(rep.WinnerBonus.Sequence),
			telnet.Colorf(telnet.BrightGreen, "  Total Power: %d", rep.WinnerBonus.TotalPower),
		)
	}
	if rep.LoserConsolation != nil {
		lines = append(lines,
			telnet.Colorf(telnet.Magenta, "%s flips their unbreakable coins:", loser.Name),
			"  "+RenderTrail(rep.LoserConsolation.Sequence),
			telnet.Colorf(telnet.Magenta, "  Total Power: %d", rep.LoserConsolation.TotalPower),
		)
	}
	return lines
}

// RenderDiceClash formats a dice clash report including every tied reroll.
func RenderDiceClash(rep roll.Report) []string {
	short := rep.ID.String()[:8]
	if rep.Cancelled {
		return []string{telnet.Colorf(telnet.Yellow,
			"No one challenged %s's %s in time. Dice clash %s cancelled.", rep.A.Name, rep.A.Record.Name, short)}
	}

	lines := []string{telnet.Colorf(telnet.Bold+telnet.BrightRed, "DICE CLASH %s: %s (%s) vs %s (%s)",
		short, rep.A.Name, rep.A.Record.Name, rep.B.Name, rep.B.Record.Name)}
	for i, x := range rep.Exchanges {
		lines = append(lines,
			telnet.Colorf(telnet.BrightWhite, "Roll %d:", i+1),
			fmt.Sprintf("  %s: %s", rep.A.Name, renderDie(x.A)),
			fmt.Sprintf("  %s: %s", rep.B.Name, renderDie(x.B)),
		)
		if x.Tied() {
			lines = append(lines, telnet.Colorize(telnet.Yellow, "  Tie! Both sides reroll."))
		}
	}
	if rep.Winner != duel.SideNone {
		w := rep.A
		if rep.Winner == duel.SideB {
			w = rep.B
		}
		lines = append(lines, telnet.Colorf(telnet.BrightGreen, "WINNER %s", w.Name))
	}
	return lines
}

// RenderSkills lists a player's saved skills.
func RenderSkills(recs []skill.Record) []string {
	if len(recs) == 0 {
		return []string{telnet.Colorize(telnet.Dim, "You have no saved skills. Try 'save_skill' or 'adopt'.")}
	}
	lines := []string{telnet.Colorize(telnet.BrightWhite, "=== Your Skills ===")}
	for _, r := range recs {
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			telnet.PadRight(telnet.Colorf(telnet.Cyan, "#%d", r.ID), 5),
			telnet.PadRight(telnet.Colorize(telnet.BrightWhite, r.Name), 20),
			describeRecord(r),
		))
	}
	return lines
}

// RenderPresets lists the house skills.
func RenderPresets(presets []*skill.Preset) []string {
	if len(presets) == 0 {
		return []string{telnet.Colorize(telnet.Dim, "No house skills are loaded.")}
	}
	lines := []string{telnet.Colorize(telnet.BrightWhite, "=== House Skills ===")}
	for _, p := range presets {
		rec, err := p.Record("")
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			telnet.PadRight(telnet.Colorize(telnet.Cyan, p.ID), 12),
			telnet.PadRight(telnet.Colorize(telnet.BrightWhite, p.Name), 14),
			describeRecord(rec),
		))
		if p.Description != "" {
			lines = append(lines, "      "+telnet.Colorize(telnet.Dim, p.Description))
		}
	}
	return lines
}

func describeRecord(r skill.Record) string {
	if r.Kind == skill.KindDice {
		return fmt.Sprintf("dice  base %d, dice power %d", r.BasePower, r.DicePower)
	}
	return fmt.Sprintf("coin  base %d, coin power %d, coins %d (%d unbreakable)",
		r.BasePower, r.CoinPower, r.TotalCoins, r.UnbreakableCoins)
}

// RenderWho lists seated players.
func RenderWho(players []*session.Player) []string {
	if len(players) == 0 {
		return []string{telnet.Colorize(telnet.Dim, "The table is empty.")}
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Handle
	}
	return []string{telnet.Colorf(telnet.Green, "At the table (%d): %s", len(players), strings.Join(names, ", "))}
}

// RenderChallenges lists open challenges with the time left to join.
func RenderChallenges(open []*lobby.Challenge, window time.Duration, now time.Time) []string {
	if len(open) == 0 {
		return []string{telnet.Colorize(telnet.Dim, "No open challenges.")}
	}
	lines := []string{telnet.Colorize(telnet.BrightWhite, "=== Open Challenges ===")}
	for _, c := range open {
		left := max(0, window-now.Sub(c.CreatedAt)).Truncate(time.Second)
		lines = append(lines, fmt.Sprintf("  %s %s %s %s",
			telnet.Colorize(telnet.Cyan, c.ShortID()),
			telnet.PadRight(c.Owner.Name, 12),
			telnet.PadRight(fmt.Sprintf("%s (%s)", c.Owner.Record.Name, c.Owner.Record.Kind), 24),
			telnet.Colorf(telnet.Dim, "%s left", left),
		))
	}
	return lines
}

// RenderHelp lists commands grouped by category.
func RenderHelp(r *command.Registry) []string {
	lines := []string{telnet.Colorize(telnet.BrightWhite, "Available commands:")}
	cats := r.CommandsByCategory()
	for _, cat := range []string{command.CategorySkills, command.CategoryResolve, command.CategoryChallenge, command.CategorySystem} {
		cmds := cats[cat]
		if len(cmds) == 0 {
			continue
		}
		lines = append(lines, telnet.Colorize(telnet.Yellow, "  "+cat))
		for _, c := range cmds {
			usage := c.Name
			if c.Usage != "" {
				usage += " " + c.Usage
			}
			lines = append(lines, "    "+telnet.PadRight(telnet.Colorize(telnet.Green, usage), 52)+" "+c.Help)
		}
	}
	return lines
}
