// Package duel holds the types shared by the two-player engines and the
// challenge lobby that feeds them.
package duel

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/coinclash/internal/game/skill"
)

// Side identifies one of the two duelists.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

// String returns "A", "B", or "none".
func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// Opponent returns the other side. SideNone maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// Contestant is one participant entering a duel.
type Contestant struct {
	UserID string
	Name   string
	Record skill.Record
	Sanity int
}

// RequireKind returns a *skill.ValidationError when the contestant's skill
// is not of kind k, otherwise the record's own validation result.
func (c Contestant) RequireKind(k skill.Kind) error {
	if c.Record.Kind != k {
		return &skill.ValidationError{
			Skill:  c.Record.Name,
			Field:  "kind",
			Reason: fmt.Sprintf("must be %s, got %s", k, c.Record.Kind),
		}
	}
	return c.Record.Validate()
}

// Join is the hand-off from the challenge collaborator to an engine entry
// point. A nil Challenger with a nil Err means nobody joined in time.
type Join struct {
	Challenger *Contestant
	Err        error
}

// TimedOut reports whether the join carries neither a challenger nor an error.
func (j Join) TimedOut() bool {
	return j.Challenger == nil && j.Err == nil
}

// Await blocks until join yields, the channel closes, or ctx ends.
//
// Postcondition: Returns (challenger, nil) when someone joined; (nil, nil)
// on timeout or a closed channel; (nil, err) when the collaborator reported
// an error or ctx ended.
func Await(ctx context.Context, join <-chan Join) (*Contestant, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case j, ok := <-join:
		if !ok || j.TimedOut() {
			return nil, nil
		}
		if j.Err != nil {
			return nil, j.Err
		}
		return j.Challenger, nil
	}
}
