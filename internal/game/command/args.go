package command

import (
	"fmt"
	"strconv"

	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// SkillRef names a saved skill either by per-user id or by name.
type SkillRef struct {
	ID   int64
	Name string
}

// ByID reports whether the reference is numeric.
func (r SkillRef) ByID() bool { return r.Name == "" }

// String renders the reference as the player typed it.
func (r SkillRef) String() string {
	if r.ByID() {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Name
}

// ParseSkillRef reads an all-digit argument as an id and anything else as a name.
//
// Postcondition: Returns an error only for an empty argument or an id that
// does not fit in int64.
func ParseSkillRef(arg string) (SkillRef, error) {
	if arg == "" {
		return SkillRef{}, fmt.Errorf("skill reference must not be empty")
	}
	if !skill.IsNumericRef(arg) {
		return SkillRef{Name: arg}, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return SkillRef{}, fmt.Errorf("skill id %q out of range", arg)
	}
	return SkillRef{ID: id}, nil
}

// ParseSanity reads a signed integer and clamps it to the sanity range.
func ParseSanity(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("sanity must be a whole number, got %q", arg)
	}
	return skill.ClampSanity(n), nil
}

// ParseInts parses every argument as a signed integer, naming the field on failure.
//
// Precondition: len(fields) == len(args).
func ParseInts(fields, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number, got %q", fields[i], a)
		}
		out[i] = n
	}
	return out, nil
}
