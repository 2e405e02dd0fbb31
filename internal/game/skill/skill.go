// Package skill defines the saved-ability records consumed by the resolution
// engines, along with the sanity bounds every engine clamps to.
package skill

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanity bounds. Every engine re-clamps its sanity input to this range.
const (
	MinSanity = -45
	MaxSanity = 45
)

// ClampSanity bounds sanity to [MinSanity, MaxSanity].
//
// Postcondition: MinSanity <= result <= MaxSanity.
func ClampSanity(sanity int) int {
	return max(MinSanity, min(MaxSanity, sanity))
}

// ErrNotFound is returned by skill lookups that match no record.
var ErrNotFound = errors.New("skill not found")

// ValidationError reports a malformed skill record. It is always returned
// before any randomness is drawn.
type ValidationError struct {
	Skill  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Skill == "" {
		return fmt.Sprintf("invalid skill: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid skill %q: %s %s", e.Skill, e.Field, e.Reason)
}

// Kind distinguishes coin-based skills from dice-based skills.
type Kind int

const (
	KindCoin Kind = iota
	KindDice
)

// String returns the persisted name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCoin:
		return "coin"
	case KindDice:
		return "dice"
	default:
		return "unknown"
	}
}

// ParseKind maps a persisted kind name back to a Kind.
//
// Postcondition: Returns the Kind or an error for unknown names.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "coin":
		return KindCoin, nil
	case "dice":
		return KindDice, nil
	default:
		return 0, fmt.Errorf("unknown skill kind %q", s)
	}
}

// Size bounds for a single skill.
const (
	MaxCoins     = 200
	MaxDiceFaces = 1000
)

// CoinSkill is the coin variant of a saved ability.
//
// Invariant (after Validate): 0 <= UnbreakableCoins <= TotalCoins <= MaxCoins.
type CoinSkill struct {
	Name             string
	BasePower        int
	CoinPower        int
	TotalCoins       int
	UnbreakableCoins int
}

// NormalCoins returns TotalCoins - UnbreakableCoins.
func (s CoinSkill) NormalCoins() int {
	return s.TotalCoins - s.UnbreakableCoins
}

// Validate checks the coin-count invariants.
//
// Postcondition: Returns nil or a *ValidationError.
func (s CoinSkill) Validate() error {
	switch {
	case s.TotalCoins < 0:
		return &ValidationError{Skill: s.Name, Field: "coins", Reason: fmt.Sprintf("must be >= 0, got %d", s.TotalCoins)}
	case s.TotalCoins > MaxCoins:
		return &ValidationError{Skill: s.Name, Field: "coins", Reason: fmt.Sprintf("must be at most %d, got %d", MaxCoins, s.TotalCoins)}
	case s.UnbreakableCoins < 0:
		return &ValidationError{Skill: s.Name, Field: "unbreakable", Reason: fmt.Sprintf("must be >= 0, got %d", s.UnbreakableCoins)}
	case s.UnbreakableCoins > s.TotalCoins:
		return &ValidationError{Skill: s.Name, Field: "unbreakable", Reason: fmt.Sprintf("must not exceed coins (%d > %d)", s.UnbreakableCoins, s.TotalCoins)}
	}
	return nil
}

// DiceSkill is the dice variant of a saved ability. The magnitude of
// DicePower is the die's face count; a negative sign inverts sanity scaling.
type DiceSkill struct {
	Name      string
	BasePower int
	DicePower int
}

// Faces returns |DicePower|.
func (s DiceSkill) Faces() int {
	if s.DicePower < 0 {
		return -s.DicePower
	}
	return s.DicePower
}

// Inverted reports whether sanity scaling runs in the reverse direction.
func (s DiceSkill) Inverted() bool {
	return s.DicePower < 0
}

// Validate rejects zero-sided and oversized dice.
//
// Postcondition: Returns nil or a *ValidationError.
func (s DiceSkill) Validate() error {
	switch {
	case s.DicePower == 0:
		return &ValidationError{Skill: s.Name, Field: "dice_power", Reason: "must not be 0"}
	case s.DicePower < -MaxDiceFaces || s.DicePower > MaxDiceFaces:
		return &ValidationError{Skill: s.Name, Field: "dice_power", Reason: fmt.Sprintf("must be between -%d and %d, got %d", MaxDiceFaces, MaxDiceFaces, s.DicePower)}
	}
	return nil
}

// Record is a persisted skill owned by one user. ID is scoped per user.
type Record struct {
	UserID           string
	ID               int64
	Name             string
	Kind             Kind
	BasePower        int
	CoinPower        int
	TotalCoins       int
	UnbreakableCoins int
	DicePower        int
}

// Coin projects the record onto the coin variant.
func (r Record) Coin() CoinSkill {
	return CoinSkill{
		Name:             r.Name,
		BasePower:        r.BasePower,
		CoinPower:        r.CoinPower,
		TotalCoins:       r.TotalCoins,
		UnbreakableCoins: r.UnbreakableCoins,
	}
}

// Dice projects the record onto the dice variant.
func (r Record) Dice() DiceSkill {
	return DiceSkill{Name: r.Name, BasePower: r.BasePower, DicePower: r.DicePower}
}

// Validate dispatches to the variant's invariants and requires a name.
//
// Postcondition: Returns nil or a *ValidationError.
func (r Record) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	switch r.Kind {
	case KindCoin:
		return r.Coin().Validate()
	case KindDice:
		return r.Dice().Validate()
	default:
		return &ValidationError{Skill: r.Name, Field: "kind", Reason: fmt.Sprintf("unknown kind %d", r.Kind)}
	}
}

// MaxNameLength bounds a skill name.
const MaxNameLength = 64

// validateName keeps names addressable from a command line: a name made only
// of digits would always be read as an id.
func validateName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case utf8.RuneCountInString(name) > MaxNameLength:
		return &ValidationError{Skill: name, Field: "name", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	case strings.ContainsFunc(name, unicode.IsSpace):
		return &ValidationError{Skill: name, Field: "name", Reason: "must not contain whitespace"}
	case IsNumericRef(name):
		return &ValidationError{Skill: name, Field: "name", Reason: "must not be all digits"}
	}
	return nil
}

// IsNumericRef reports whether ref is a non-empty run of ASCII digits, which
// selects a skill by id rather than by name.
func IsNumericRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, c := range ref {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FromCoin builds a coin Record.
func FromCoin(userID string, s CoinSkill) Record {
	return Record{
		UserID:           userID,
		Name:             s.Name,
		Kind:             KindCoin,
		BasePower:        s.BasePower,
		CoinPower:        s.CoinPower,
		TotalCoins:       s.TotalCoins,
		UnbreakableCoins: s.UnbreakableCoins,
	}
}

// FromDice builds a dice Record.
func FromDice(userID string, s DiceSkill) Record {
	return Record{
		UserID:    userID,
		Name:      s.Name,
		Kind:      KindDice,
		BasePower: s.BasePower,
		DicePower: s.DicePower,
	}
}
