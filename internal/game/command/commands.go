// Package command provides the table's command registry, line parser, and
// argument helpers.
package command

import "fmt"

// Categories for organizing commands in help output.
const (
	CategorySkills    = "skills"
	CategoryResolve   = "resolve"
	CategoryChallenge = "challenge"
	CategorySystem    = "system"
)

// Handler identifiers dispatched by the table session.
const (
	HandlerSaveSkill   = "save_skill"
	HandlerSaveDice    = "save_dice"
	HandlerDeleteSkill = "delete_skill"
	HandlerSkills      = "skills"
	HandlerPresets     = "presets"
	HandlerAdopt       = "adopt"
	HandlerFlip        = "flip"
	HandlerRoll        = "roll"
	HandlerClash       = "clash"
	HandlerDiceClash   = "dclash"
	HandlerJoin        = "join"
	HandlerChallenges  = "challenges"
	HandlerWho         = "who"
	HandlerHelp        = "help"
	HandlerQuit        = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name    string
	Aliases []string
	// Usage lists the arguments, e.g. "<sanity> <skill>".
	Usage    string
	Help     string
	Category string
	Handler  string
	// MinArgs is the number of required arguments.
	MinArgs int
}

// CheckArgs reports a usage error when fewer than MinArgs arguments were given.
func (c *Command) CheckArgs(args []string) error {
	if len(args) < c.MinArgs {
		return fmt.Errorf("usage: %s %s", c.Name, c.Usage)
	}
	return nil
}

// BuiltinCommands returns all table commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "save_skill", Aliases: []string{"save"}, Usage: "<name> <base> <coin_power> <coins> <unbreakable>", Help: "Save a coin skill", Category: CategorySkills, Handler: HandlerSaveSkill, MinArgs: 5},
		{Name: "save_dice", Usage: "<name> <base> <dice_power>", Help: "Save a dice skill (negative dice power inverts sanity)", Category: CategorySkills, Handler: HandlerSaveDice, MinArgs: 3},
		{Name: "delete_skill", Aliases: []string{"del"}, Usage: "<name|id>", Help: "Delete a saved skill", Category: CategorySkills, Handler: HandlerDeleteSkill, MinArgs: 1},
		{Name: "skills", Aliases: []string{"list"}, Help: "List your saved skills", Category: CategorySkills, Handler: HandlerSkills},
		{Name: "presets", Help: "List house skills", Category: CategorySkills, Handler: HandlerPresets},
		{Name: "adopt", Usage: "<preset>", Help: "Save a copy of a house skill", Category: CategorySkills, Handler: HandlerAdopt, MinArgs: 1},

		{Name: "flip", Usage: "<sanity> <name|id>", Help: "Flip a coin skill", Category: CategoryResolve, Handler: HandlerFlip, MinArgs: 2},
		{Name: "roll", Usage: "<sanity> <name|id>", Help: "Roll a dice skill", Category: CategoryResolve, Handler: HandlerRoll, MinArgs: 2},

		{Name: "clash", Usage: "<sanity> <name|id>", Help: "Open a coin clash challenge", Category: CategoryChallenge, Handler: HandlerClash, MinArgs: 2},
		{Name: "dclash", Usage: "<sanity> <name|id>", Help: "Open a dice clash challenge", Category: CategoryChallenge, Handler: HandlerDiceClash, MinArgs: 2},
		{Name: "join", Aliases: []string{"accept"}, Usage: "<challenge> <sanity> <name|id>", Help: "Join an open challenge", Category: CategoryChallenge, Handler: HandlerJoin, MinArgs: 3},
		{Name: "challenges", Aliases: []string{"open"}, Help: "List open challenges", Category: CategoryChallenge, Handler: HandlerChallenges},

		{Name: "who", Help: "List seated players", Category: CategorySystem, Handler: HandlerWho},
		{Name: "help", Aliases: []string{"?"}, Help: "Show this help", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Leave the table", Category: CategorySystem, Handler: HandlerQuit},
	}
}
