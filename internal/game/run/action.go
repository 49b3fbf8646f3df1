package run

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

// ErrInvalidAction is wrapped by ParseAction for unrecognized action kinds.
var ErrInvalidAction = errors.New("invalid_action")

// ActionKind is the kind of player action.
type ActionKind int

const (
	ActionBasic ActionKind = iota
	ActionSkill
)

// Action is a player decision submitted with a Step.
type Action struct {
	Kind ActionKind
	// Slot is the skill slot, always within [0, ruleset.SkillSlotCount-1].
	Slot int
}

// Basic returns a basic attack action.
func Basic() *Action { return &Action{Kind: ActionBasic} }

// Skill returns a skill-slot action; out-of-range slots are clamped.
func Skill(slot int) *Action {
	return &Action{Kind: ActionSkill, Slot: ruleset.ClampSlot(slot)}
}

// ParseAction maps a host action string to an Action.
// "none" and "" mean no action and yield nil; "basic" ignores arg; "skill"
// clamps arg into the slot range.
//
// Postcondition: Returns an error wrapping ErrInvalidAction for any other kind.
func ParseAction(kind string, arg int) (*Action, error) {
	switch kind {
	case "none", "":
		return nil, nil
	case "basic":
		return Basic(), nil
	case "skill":
		return Skill(arg), nil
	default:
		return nil, fmt.Errorf("%w:%s", ErrInvalidAction, kind)
	}
}

// Skill returns the skill the action uses.
func (a *Action) Skill() *ruleset.Skill {
	if a.Kind == ActionSkill {
		return ruleset.SlotSkill(a.Slot)
	}
	return ruleset.MustSkill(ruleset.BasicAttackID)
}

func (a *Action) String() string {
	if a == nil {
		return "none"
	}
	if a.Kind == ActionSkill {
		return fmt.Sprintf("skill:%d", a.Slot)
	}
	return "basic"
}
