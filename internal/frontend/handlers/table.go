package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/frontend/telnet"
	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/coin"
	"github.com/cory-johannsen/coinclash/internal/game/command"
	"github.com/cory-johannsen/coinclash/internal/game/dice"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/lobby"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/session"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
	"github.com/cory-johannsen/coinclash/internal/storage/postgres"
)

// SkillStore defines the skill persistence operations required by Table.
type SkillStore interface {
	Save(ctx context.Context, rec skill.Record) (skill.Record, error)
	GetByID(ctx context.Context, userID string, id int64) (skill.Record, error)
	GetByName(ctx context.Context, userID, name string) (skill.Record, error)
	ListByUser(ctx context.Context, userID string) ([]skill.Record, error)
	DeleteByID(ctx context.Context, userID string, id int64) (string, error)
	DeleteByName(ctx context.Context, userID, name string) (string, error)
}

// Table is the shared room every authenticated player sits at. It dispatches
// commands, runs challenges in the background, and broadcasts results.
type Table struct {
	skills   SkillStore
	presets  []*skill.Preset
	src      dice.Source
	clashes  *clash.Engine
	rolls    *roll.Engine
	lobby    *lobby.Lobby
	seats    *session.Manager
	registry *command.Registry
	logger   *zap.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewTable wires the table's collaborators.
//
// Precondition: every argument except presets must be non-nil.
func NewTable(
	skills SkillStore,
	presets []*skill.Preset,
	src dice.Source,
	clashes *clash.Engine,
	rolls *roll.Engine,
	lby *lobby.Lobby,
	seats *session.Manager,
	logger *zap.Logger,
) *Table {
	return &Table{
		skills:   skills,
		presets:  presets,
		src:      src,
		clashes:  clashes,
		rolls:    rolls,
		lobby:    lby,
		seats:    seats,
		registry: command.DefaultRegistry(),
		logger:   logger,
		now:      time.Now,
	}
}

// Serve seats handle and runs its command loop until quit, disconnect, or ctx ends.
//
// Precondition: handle must be authenticated.
// Postcondition: handle is no longer seated when Serve returns.
func (t *Table) Serve(ctx context.Context, conn *telnet.Conn, handle string) error {
	p, err := t.seats.Seat(handle)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySeated) {
			return conn.WriteLine(telnet.Colorize(telnet.Red, "You are already seated from another connection."))
		}
		return err
	}

	prompt := telnet.Colorf(telnet.BrightCyan, "[%s]> ", handle)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for lines := range p.Outbox.Messages() {
			if err := conn.WriteLines(lines); err != nil {
				t.logger.Debug("dropping output", zap.String("handle", handle), zap.Error(err))
				continue
			}
			_ = conn.WritePrompt(prompt)
		}
	}()
	defer func() {
		_ = t.seats.Leave(handle)
		<-done
		t.broadcast(handle, []string{telnet.Colorf(telnet.Dim, "%s leaves the table.", handle)})
	}()

	t.broadcast(handle, []string{telnet.Colorf(telnet.Dim, "%s sits down at the table.", handle)})
	t.reply(handle, append([]string{
		telnet.Colorf(telnet.BrightGreen, "Welcome to the table, %s. Type 'help' for commands.", handle),
	}, RenderWho(t.seats.Players())...))

	for {
		select {
		case <-ctx.Done():
			t.reply(handle, []string{telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!")})
			return ctx.Err()
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		parsed := command.Parse(line)
		if parsed.Command == "" {
			_ = conn.WritePrompt(prompt)
			continue
		}
		if quit := t.dispatch(ctx, handle, parsed); quit {
			return nil
		}
	}
}

// Close expires open challenges and waits for their resolutions to broadcast.
//
// Postcondition: No challenge goroutine is running.
func (t *Table) Close() {
	t.lobby.Close()
	t.wg.Wait()
}

// dispatch runs one parsed command for handle and reports whether the player quit.
func (t *Table) dispatch(ctx context.Context, handle string, parsed command.ParseResult) bool {
	cmd, ok := t.registry.Resolve(parsed.Command)
	if !ok {
		t.reply(handle, []string{telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", parsed.Command)})
		return false
	}
	if err := cmd.CheckArgs(parsed.Args); err != nil {
		t.reply(handle, []string{telnet.Colorize(telnet.Red, err.Error())})
		return false
	}

	args := parsed.Args
	switch cmd.Handler {
	case command.HandlerSaveSkill:
		t.handleSaveSkill(ctx, handle, args)
	case command.HandlerSaveDice:
		t.handleSaveDice(ctx, handle, args)
	case command.HandlerDeleteSkill:
		t.handleDelete(ctx, handle, args[0])
	case command.HandlerSkills:
		t.handleSkills(ctx, handle)
	case command.HandlerPresets:
		t.reply(handle, RenderPresets(t.presets))
	case command.HandlerAdopt:
		t.handleAdopt(ctx, handle, args[0])
	case command.HandlerFlip:
		t.handleFlip(ctx, handle, args[0], args[1])
	case command.HandlerRoll:
		t.handleRoll(ctx, handle, args[0], args[1])
	case command.HandlerClash:
		t.handleOpen(ctx, handle, skill.KindCoin, args[0], args[1])
	case command.HandlerDiceClash:
		t.handleOpen(ctx, handle, skill.KindDice, args[0], args[1])
	case command.HandlerJoin:
		t.handleJoin(ctx, handle, args[0], args[1], args[2])
	case command.HandlerChallenges:
		t.reply(handle, RenderChallenges(t.lobby.Pending(), t.lobby.Window(), t.now()))
	case command.HandlerWho:
		t.reply(handle, RenderWho(t.seats.Players()))
	case command.HandlerHelp:
		t.reply(handle, RenderHelp(t.registry))
	case command.HandlerQuit:
		t.reply(handle, []string{telnet.Colorize(telnet.Cyan, "Goodbye!")})
		return true
	default:
		t.logger.Error("command has no handler", zap.String("command", cmd.Name), zap.String("handler", cmd.Handler))
	}
	return false
}

func (t *Table) handleSaveSkill(ctx context.Context, handle string, args []string) {
	n, err := command.ParseInts([]string{"base", "coin_power", "coins", "unbreakable"}, args[1:5])
	if err != nil {
		t.replyArgErr(handle, err)
		return
	}
	t.save(ctx, handle, skill.FromCoin(handle, skill.CoinSkill{
		Name:             args[0],
		BasePower:        n[0],
		CoinPower:        n[1],
		TotalCoins:       n[2],
		UnbreakableCoins: n[3],
	}))
}

func (t *Table) handleSaveDice(ctx context.Context, handle string, args []string) {
	n, err := command.ParseInts([]string{"base", "dice_power"}, args[1:3])
	if err != nil {
		t.replyArgErr(handle, err)
		return
	}
	t.save(ctx, handle, skill.FromDice(handle, skill.DiceSkill{
		Name:      args[0],
		BasePower: n[0],
		DicePower: n[1],
	}))
}

func (t *Table) handleAdopt(ctx context.Context, handle, presetID string) {
	p := skill.FindPreset(t.presets, presetID)
	if p == nil {
		t.reply(handle, []string{telnet.Colorf(telnet.Red, "No house skill %q. Type 'presets' to list them.", presetID)})
		return
	}
	rec, err := p.Record(handle)
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.save(ctx, handle, rec)
}

func (t *Table) save(ctx context.Context, handle string, rec skill.Record) {
	saved, err := t.skills.Save(ctx, rec)
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.reply(handle, []string{telnet.Colorf(telnet.BrightGreen, "Skill %s saved! (ID: %d)", saved.Name, saved.ID)})
}

func (t *Table) handleDelete(ctx context.Context, handle, arg string) {
	ref, err := command.ParseSkillRef(arg)
	if err != nil {
		t.replyArgErr(handle, err)
		return
	}
	var name string
	if ref.ByID() {
		name, err = t.skills.DeleteByID(ctx, handle, ref.ID)
	} else {
		name, err = t.skills.DeleteByName(ctx, handle, ref.Name)
	}
	if err != nil {
		t.replySkillErr(handle, ref, err)
		return
	}
	t.reply(handle, []string{telnet.Colorf(telnet.Yellow, "Skill %s has been deleted.", name)})
}

func (t *Table) handleSkills(ctx context.Context, handle string) {
	recs, err := t.skills.ListByUser(ctx, handle)
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.reply(handle, RenderSkills(recs))
}

func (t *Table) handleFlip(ctx context.Context, handle, sanityArg, refArg string) {
	c, ok := t.contestant(ctx, handle, sanityArg, refArg, skill.KindCoin)
	if !ok {
		return
	}
	res, err := coin.ResolveFlip(t.src, c.Record.Coin(), c.Sanity)
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.broadcast(handle, RenderFlip(handle, c.Record.Name, c.Sanity, res))
}

func (t *Table) handleRoll(ctx context.Context, handle, sanityArg, refArg string) {
	c, ok := t.contestant(ctx, handle, sanityArg, refArg, skill.KindDice)
	if !ok {
		return
	}
	res, err := t.rolls.Roll(c.Record.Dice(), c.Sanity)
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.broadcast(handle, RenderRoll(handle, c.Record.Name, c.Sanity, res))
}

// handleOpen opens a challenge and resolves it in the background once it is
// joined, fails, or expires.
func (t *Table) handleOpen(ctx context.Context, handle string, kind skill.Kind, sanityArg, refArg string) {
	owner, ok := t.contestant(ctx, handle, sanityArg, refArg, kind)
	if !ok {
		return
	}
	ch := t.lobby.Open(owner)
	t.broadcast(handle, RenderChallengeOpened(ch, t.lobby.Window()))

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		var lines []string
		var err error
		if kind == skill.KindDice {
			var rep roll.Report
			rep, err = t.rolls.ResolveChallenge(context.Background(), owner, ch.Joined())
			lines = RenderDiceClash(rep)
		} else {
			var rep clash.Report
			rep, err = t.clashes.ResolveChallenge(context.Background(), owner, ch.Joined())
			lines = RenderClash(rep)
		}
		if err != nil {
			lines = t.challengeFailure(ch, err)
		}
		t.broadcast("", lines)
	}()
}

func (t *Table) challengeFailure(ch *lobby.Challenge, err error) []string {
	switch {
	case errors.Is(err, skill.ErrNotFound):
		return []string{telnet.Colorf(telnet.Yellow, "Challenge %s cancelled: the challenger's skill was not found.", ch.ShortID())}
	case errors.Is(err, roll.ErrTieStreak):
		return []string{telnet.Colorf(telnet.Yellow, "Dice clash %s abandoned: every reroll tied.", ch.ShortID())}
	default:
		t.logger.Error("resolving challenge", zap.String("challenge_id", ch.ID.String()), zap.Error(err))
		return []string{telnet.Colorf(telnet.Red, "Challenge %s could not be resolved.", ch.ShortID())}
	}
}

func (t *Table) handleJoin(ctx context.Context, handle, challengeRef, sanityArg, refArg string) {
	sanity, err := command.ParseSanity(sanityArg)
	if err != nil {
		t.replyArgErr(handle, err)
		return
	}
	ref, err := command.ParseSkillRef(refArg)
	if err != nil {
		t.replyArgErr(handle, err)
		return
	}
	rec, err := t.lookup(ctx, handle, ref)
	if errors.Is(err, skill.ErrNotFound) {
		if ferr := t.lobby.Fail(challengeRef, handle, err); ferr != nil {
			t.replyErr(handle, ferr)
			return
		}
		t.reply(handle, []string{telnet.Colorf(telnet.Red, "Skill %s not found. Challenge cancelled.", ref)})
		return
	}
	if err != nil {
		t.replyErr(handle, err)
		return
	}

	ch, err := t.lobby.Join(challengeRef, duel.Contestant{UserID: handle, Name: handle, Record: rec, Sanity: sanity})
	if err != nil {
		t.replyErr(handle, err)
		return
	}
	t.reply(handle, []string{telnet.Colorf(telnet.BrightGreen, "You joined %s's clash using %s!", ch.Owner.Name, rec.Name)})
}

// contestant resolves a sanity and skill reference into a contestant of kind.
//
// Postcondition: Returns ok == false after replying with the reason.
func (t *Table) contestant(ctx context.Context, handle, sanityArg, refArg string, kind skill.Kind) (duel.Contestant, bool) {
	sanity, err := command.ParseSanity(sanityArg)
	if err != nil {
		t.replyArgErr(handle, err)
		return duel.Contestant{}, false
	}
	ref, err := command.ParseSkillRef(refArg)
	if err != nil {
		t.replyArgErr(handle, err)
		return duel.Contestant{}, false
	}
	rec, err := t.lookup(ctx, handle, ref)
	if err != nil {
		t.replySkillErr(handle, ref, err)
		return duel.Contestant{}, false
	}
	c := duel.Contestant{UserID: handle, Name: handle, Record: rec, Sanity: sanity}
	if err := c.RequireKind(kind); err != nil {
		t.replyErr(handle, err)
		return duel.Contestant{}, false
	}
	return c, true
}

func (t *Table) lookup(ctx context.Context, handle string, ref command.SkillRef) (skill.Record, error) {
	if ref.ByID() {
		return t.skills.GetByID(ctx, handle, ref.ID)
	}
	return t.skills.GetByName(ctx, handle, ref.Name)
}

func (t *Table) reply(handle string, lines []string) {
	if err := t.seats.Send(handle, lines); err != nil {
		t.logger.Warn("reply dropped", zap.String("handle", handle), zap.Error(err))
	}
}

// broadcast sends lines to every seated player. from is logged for attribution.
func (t *Table) broadcast(from string, lines []string) {
	if failed := t.seats.Broadcast(lines); len(failed) > 0 {
		t.logger.Warn("broadcast dropped", zap.String("from", from), zap.Strings("handles", failed))
	}
}

func (t *Table) replySkillErr(handle string, ref command.SkillRef, err error) {
	if errors.Is(err, skill.ErrNotFound) {
		t.reply(handle, []string{telnet.Colorf(telnet.Red, "Skill %s not found.", ref)})
		return
	}
	t.replyErr(handle, err)
}

// replyErr maps a domain error onto a player-facing message. Anything
// unrecognized is logged and reported generically.
func (t *Table) replyErr(handle string, err error) {
	var verr *skill.ValidationError
	var msg string
	switch {
	case errors.As(err, &verr):
		msg = verr.Error()
	case errors.Is(err, postgres.ErrSkillNameTaken):
		msg = "You already have a skill with that name."
	case errors.Is(err, lobby.ErrChallengeNotFound):
		msg = "No open challenge matches that id. Type 'challenges' to list them."
	case errors.Is(err, lobby.ErrAmbiguousChallenge):
		msg = "That challenge id matches more than one challenge. Use more characters."
	case errors.Is(err, lobby.ErrSelfChallenge):
		msg = "You cannot join your own challenge."
	case errors.Is(err, lobby.ErrChallengeClosed):
		msg = "That challenge is already closed."
	case errors.Is(err, skill.ErrNotFound):
		msg = "Skill not found."
	default:
		t.logger.Error("command failed", zap.String("handle", handle), zap.Error(err))
		msg = "An internal error occurred. Please try again."
	}
	t.reply(handle, []string{telnet.Colorize(telnet.Red, msg)})
}

// replyArgErr reports a malformed argument verbatim.
func (t *Table) replyArgErr(handle string, err error) {
	t.reply(handle, []string{telnet.Colorize(telnet.Red, err.Error())})
}
