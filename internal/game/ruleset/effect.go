package ruleset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cory-johannsen/overstack/internal/game/status"
)

// Stat is a unit attribute a SelfBuff can raise.
type Stat int

const (
	StatAttack Stat = iota
	StatSpeed
)

// BuffStatus returns the status that represents a buff to s.
func (s Stat) BuffStatus() status.Type {
	if s == StatSpeed {
		return status.Haste
	}
	return status.Might
}

// Target selects the unit an effect lands on, relative to a trigger context.
type Target int

const (
	TargetSrc Target = iota
	TargetDst
	// TargetPlayer is the first unit on the player team.
	TargetPlayer
	// TargetEnemy is the first living enemy, falling back to any enemy.
	TargetEnemy
)

// Effect is one tagged operation in a skill or trait rule. The catalog is
// closed: the resolver switches over exactly these types.
type Effect interface {
	// Summary is the short description recorded when a trait applies the effect.
	Summary() string
	isEffect()
}

// DealDamage deals attack*Multiplier+Flat damage to the destination.
type DealDamage struct {
	Multiplier float64
	Flat       float64
}

// ApplyStatus attempts to inflict a status on the destination.
type ApplyStatus struct {
	Status   status.Type
	Chance   float64
	Duration float64
	Stacks   uint32
	Power    float64
}

// ConditionalDamageAmp amplifies damage when When holds.
type ConditionalDamageAmp struct {
	When Condition
	Amp  float64
}

// ConditionalApplyStatus applies a status when When holds.
type ConditionalApplyStatus struct {
	When     Condition
	Status   status.Type
	Chance   float64
	Duration float64
	Stacks   uint32
	Power    float64
}

// SelfBuff applies the buff status for Stat to the source.
type SelfBuff struct {
	Stat     Stat
	Amount   float64
	Duration float64
}

// AddProcBonus raises the source's status-application chance.
type AddProcBonus struct {
	Amount float64
}

// AddResBonus raises the source's status resistance.
type AddResBonus struct {
	Amount float64
}

// ModifyStatusPower raises the power multiplier of statuses the source inflicts.
type ModifyStatusPower struct {
	Status     status.Type
	Multiplier float64
}

// AddStatusStacks injects stacks of a status onto Target unconditionally.
type AddStatusStacks struct {
	Target Target
	Status status.Type
	Stacks uint32
}

// DealPureDamage deals a fixed amount to Target, ignoring attack.
type DealPureDamage struct {
	Target Target
	Amount float64
}

func (DealDamage) isEffect()             {}
func (ApplyStatus) isEffect()            {}
func (ConditionalDamageAmp) isEffect()   {}
func (ConditionalApplyStatus) isEffect() {}
func (SelfBuff) isEffect()               {}
func (AddProcBonus) isEffect()           {}
func (AddResBonus) isEffect()            {}
func (ModifyStatusPower) isEffect()      {}
func (AddStatusStacks) isEffect()        {}
func (DealPureDamage) isEffect()         {}

func (e DealDamage) Summary() string {
	return fmt.Sprintf("DealDamage x%.2f +%s", e.Multiplier, strconv.FormatFloat(e.Flat, 'f', -1, 64))
}

func (e ApplyStatus) Summary() string { return "ApplyStatus " + e.Status.String() }

func (e ConditionalDamageAmp) Summary() string {
	return fmt.Sprintf("ConditionalDamageAmp x%.2f", e.Amp)
}

func (e ConditionalApplyStatus) Summary() string {
	return "ConditionalApplyStatus " + e.Status.String()
}

func (e SelfBuff) Summary() string { return "SelfBuff " + e.Stat.BuffStatus().String() }

func (e AddProcBonus) Summary() string { return fmt.Sprintf("AddProcBonus +%.2f", e.Amount) }

func (e AddResBonus) Summary() string { return fmt.Sprintf("AddResBonus +%.2f", e.Amount) }

func (e ModifyStatusPower) Summary() string {
	return fmt.Sprintf("ModifyStatusPower %s x%.2f", e.Status, e.Multiplier)
}

func (e AddStatusStacks) Summary() string {
	return fmt.Sprintf("AddStatusStacks %s +%d", e.Status, max(e.Stacks, 1))
}

func (e DealPureDamage) Summary() string {
	return fmt.Sprintf("DealPureDamage %.2f", math.Max(e.Amount, 0.01))
}
