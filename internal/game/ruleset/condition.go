package ruleset

import "github.com/cory-johannsen/overstack/internal/game/status"

// Condition is a node of the predicate tree evaluated against a trigger
// context. The set of node kinds is closed; evaluation lives with the battle
// state that supplies the context.
type Condition interface {
	isCondition()
}

// Always is true.
type Always struct{}

// SrcIsPlayer is true when the context source is on the player team.
type SrcIsPlayer struct{}

// DstIsEnemy is true when the context destination is on the enemy team.
type DstIsEnemy struct{}

// AppliedStatusIs is true when the status just applied is Status.
type AppliedStatusIs struct {
	Status status.Type
}

// RandomRollBelow consumes one draw and is true when it falls below Chance.
type RandomRollBelow struct {
	Chance float64
}

// TargetHPBelow is true when the destination's HP ratio is strictly below Ratio.
type TargetHPBelow struct {
	Ratio float64
}

// TargetHasStatus is true when the destination carries Status with time remaining.
type TargetHasStatus struct {
	Status status.Type
}

// TargetStatusCountAtLeast is true when the destination carries at least
// Count statuses with time remaining.
type TargetStatusCountAtLeast struct {
	Count int
}

// All is the conjunction of Conditions.
type All struct {
	Conditions []Condition
}

func (Always) isCondition()                   {}
func (SrcIsPlayer) isCondition()              {}
func (DstIsEnemy) isCondition()               {}
func (AppliedStatusIs) isCondition()          {}
func (RandomRollBelow) isCondition()          {}
func (TargetHPBelow) isCondition()            {}
func (TargetHasStatus) isCondition()          {}
func (TargetStatusCountAtLeast) isCondition() {}
func (All) isCondition()                      {}

// AllOf builds an All node.
func AllOf(conds ...Condition) All {
	return All{Conditions: conds}
}
