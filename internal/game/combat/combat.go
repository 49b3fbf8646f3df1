// Package combat implements the gauge-timeline combat engine: unit roster,
// condition evaluation, effect resolution, trait trigger dispatch, the status
// tick engine, and turn execution.
//
// A Battle is single-threaded and owns all of its state. Units and their
// status runtimes are two parallel slices addressed by the same index.
package combat

import (
	"math"

	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

const (
	// GaugeThreshold is the gauge a unit needs to act and the amount one action consumes.
	GaugeThreshold = 100.0
	// MaxChainDepth bounds trait reaction cascades. Dispatch and effects at
	// this depth or deeper are dropped.
	MaxChainDepth = 4
	// TickCeiling is the number of sub-steps after which an unresolved battle
	// is forced to defeat.
	TickCeiling = 20000
	// MinDamage is the floor for any single damage instance.
	MinDamage = 0.01
	// MinAmp is the floor for a conditional damage amplifier.
	MinAmp = 0.1
)

// NoUnit marks an absent source or destination in a TriggerContext.
const NoUnit = -1

// Unit is one combatant.
type Unit struct {
	ID     int
	Name   string
	Team   ruleset.Team
	HP     float64
	MaxHP  float64
	Attack int
	Speed  float64
	Gauge  float64
}

// Alive reports whether u has HP remaining.
func (u *Unit) Alive() bool { return u.HP > 0 }

// Label returns the actor label used in traces ("player" or "enemy").
func (u *Unit) Label() string { return u.Team.String() }

// HPRatio returns HP/MaxHP, or 0 when MaxHP <= 0.
func (u *Unit) HPRatio() float64 {
	if u.MaxHP <= 0 {
		return 0
	}
	return math.Max(u.HP, 0) / u.MaxHP
}

// applyDamage subtracts amount from HP, flooring at zero and rounding.
//
// Postcondition: 0 <= HP and HP has at most two decimals.
func (u *Unit) applyDamage(amount float64) {
	u.HP = RoundHP(math.Max(u.HP-amount, 0))
}

// RoundHP rounds v to two decimal places.
func RoundHP(v float64) float64 {
	return math.Round(v*100) / 100
}

// Outcome is the result of a resolved battle.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLose
)

// String returns the result tag used in traces.
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	default:
		return "none"
	}
}

// Resolved reports whether o ends the battle.
func (o Outcome) Resolved() bool { return o != OutcomeNone }
