package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const wait = 3 * time.Second

func TestTable_SkillLifecycle(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.seat(t, "alice")

	c.Send("save_skill Blade 5 3 3 1")
	c.ReadUntil("Skill Blade saved! (ID: 1)", wait)
	c.Send("save_dice Die 2 -6")
	c.ReadUntil("Skill Die saved! (ID: 2)", wait)

	c.Send("skills")
	out := c.ReadUntil("dice power -6", wait)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Blade")
	assert.Contains(t, out, "coins 3 (1 unbreakable)")

	c.Send("save Blade 1 1 1 0")
	c.ReadUntil("already have a skill with that name", wait)
	c.Send("save_skill Bad 1 1 2 3")
	c.ReadUntil(`invalid skill "Bad": unbreakable must not exceed coins`, wait)
	c.Send("save_skill 123 1 1 1 0")
	c.ReadUntil("must not be all digits", wait)
	c.Send("save_skill Odd 1 x 1 0")
	c.ReadUntil(`coin_power must be a whole number, got "x"`, wait)
	c.Send("save_dice Flat 1 0")
	c.ReadUntil("dice_power must not be 0", wait)
	c.Send("save_skill Hoard 1 1 2147483647 0")
	c.ReadUntil(`invalid skill "Hoard": coins must be at most 200, got 2147483647`, wait)
	c.Send("save_dice Huge 1 -5000")
	c.ReadUntil(`invalid skill "Huge": dice_power must be between -1000 and 1000, got -5000`, wait)

	c.Send("delete_skill 1")
	c.ReadUntil("Skill Blade has been deleted.", wait)
	c.Send("del Die")
	c.ReadUntil("Skill Die has been deleted.", wait)
	c.Send("delete_skill Nope")
	c.ReadUntil("Skill Nope not found.", wait)

	c.Send("skills")
	c.ReadUntil("You have no saved skills", wait)
}

func TestTable_AdoptPreset(t *testing.T) {
	f := newTableFixture(t, time.Second)
	c := f.seat(t, "alice")

	c.Send("presets")
	c.Expect(wait, "lucky_strike", "LuckyStrike", "steady_hand", "SteadyHand")
	c.Send("adopt lucky_strike")
	c.ReadUntil("Skill LuckyStrike saved! (ID: 1)", wait)
	c.Send("adopt lucky_strike")
	c.ReadUntil("already have a skill with that name", wait)
	c.Send("adopt nope")
	c.ReadUntil(`No house skill "nope"`, wait)
}

func TestTable_FlipAndRollAreBroadcast(t *testing.T) {
	f := newTableFixture(t, time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")
	alice.ReadUntil("bob sits down", wait)

	alice.Send("save_skill Blade 5 3 3 1")
	alice.ReadUntil("saved!", wait)
	alice.Send("flip 10 Blade")
	out := bob.Expect(wait, "alice flips Blade", "(sanity 10, 60% heads)", "Final Power:")
	assert.Regexp(t, `\[[HT]\]`, out)

	alice.Send("save_dice Die 2 6")
	alice.ReadUntil("saved!", wait)
	alice.Send("roll -5 2")
	bob.Expect(wait, "alice rolls Die", "(sanity -5)", "rolled")

	alice.Send("flip 0 Die")
	alice.ReadUntil("kind must be coin, got dice", wait)
	alice.Send("roll 0 Blade")
	alice.ReadUntil("kind must be dice, got coin", wait)
	alice.Send("flip lots Blade")
	alice.ReadUntil(`sanity must be a whole number, got "lots"`, wait)
	alice.Send("flip 0 Ghost")
	alice.ReadUntil("Skill Ghost not found.", wait)
}

func TestTable_CoinClash(t *testing.T) {
	f := newTableFixture(t, 5*time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")

	alice.Send("save_skill Blade 5 3 3 1")
	alice.ReadUntil("saved!", wait)
	bob.Send("save_skill Shield 4 2 4 2")
	bob.ReadUntil("saved!", wait)

	alice.Send("clash 5 Blade")
	ann := bob.Expect(wait, "COMBAT START - CLASH", "alice uses Blade!", "within")
	id := challengeID(t, ann)

	bob.Send("challenges")
	bob.Expect(wait, id, "alice", "Blade (coin)")

	bob.Send("join " + id + " -5 Shield")
	bob.ReadUntil("You joined alice's clash using Shield!", wait)
	alice.Expect(wait, "CLASH "+id, "Clash Step 1:", "alice:", "bob:", "WINNER", "flips all remaining coins", "Total Power:")

	bob.Send("challenges")
	bob.ReadUntil("No open challenges.", wait)
}

func TestTable_DiceClash(t *testing.T) {
	f := newTableFixture(t, 5*time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")

	alice.Send("save_dice Die 2 6")
	alice.ReadUntil("saved!", wait)
	bob.Send("adopt steady_hand")
	bob.ReadUntil("saved!", wait)

	alice.Send("dclash 0 Die")
	id := challengeID(t, bob.Expect(wait, "COMBAT START - DICE CLASH", "within"))
	bob.Send("accept " + id + " 0 1")
	bob.ReadUntil("You joined alice's clash using SteadyHand!", wait)
	alice.Expect(wait, "DICE CLASH "+id, "Roll 1:", "WINNER")
}

func TestTable_ChallengeTimesOut(t *testing.T) {
	f := newTableFixture(t, 150*time.Millisecond)
	alice := f.seat(t, "alice")

	alice.Send("save_skill Blade 5 3 3 1")
	alice.ReadUntil("saved!", wait)
	alice.Send("clash 0 Blade")
	alice.ReadUntil("No one challenged alice's Blade in time.", wait)
}

func TestTable_JoinWithUnknownSkillCancels(t *testing.T) {
	f := newTableFixture(t, 5*time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")

	alice.Send("save_skill Blade 5 3 3 1")
	alice.ReadUntil("saved!", wait)
	alice.Send("clash 0 Blade")
	id := challengeID(t, bob.ReadUntil("within", wait))

	bob.Send("join " + id + " 0 Ghost")
	bob.ReadUntil("Skill Ghost not found. Challenge cancelled.", wait)
	alice.ReadUntil("cancelled: the challenger's skill was not found", wait)

	bob.Send("join " + id + " 0 Ghost")
	bob.ReadUntil("No open challenge matches that id", wait)
}

func TestTable_JoinRejectionsLeaveChallengeOpen(t *testing.T) {
	f := newTableFixture(t, 5*time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")

	alice.Send("save_skill Blade 5 3 3 1")
	alice.ReadUntil("saved!", wait)
	bob.Send("save_dice Die 2 6")
	bob.ReadUntil("saved!", wait)

	alice.Send("clash 0 Blade")
	id := challengeID(t, alice.ReadUntil("within", wait))

	alice.Send("join " + id + " 0 Blade")
	alice.ReadUntil("You cannot join your own challenge.", wait)
	bob.Send("join " + id + " 0 Die")
	bob.ReadUntil("kind must be coin, got dice", wait)
	bob.Send("join ffffffff 0 Die")
	bob.ReadUntil("No open challenge matches that id", wait)

	bob.Send("open")
	bob.ReadUntil(id, wait)
}

func TestTable_SystemCommands(t *testing.T) {
	f := newTableFixture(t, time.Second)
	alice := f.seat(t, "alice")
	bob := f.seat(t, "bob")

	alice.Send("who")
	alice.ReadUntil("At the table (2): alice, bob", wait)
	alice.Send("!WHO")
	alice.ReadUntil("At the table (2): alice, bob", wait)

	alice.Send("?")
	alice.Expect(wait, "skills", "save_skill", "resolve", "flip", "challenge", "join", "system", "quit")

	alice.Send("dance")
	alice.ReadUntil("Unknown command: dance", wait)
	alice.Send("flip")
	alice.ReadUntil("usage: flip <sanity> <name|id>", wait)

	alice.Send("quit")
	alice.ReadUntil("Goodbye!", wait)
	bob.ReadUntil("alice leaves the table.", wait)
}
