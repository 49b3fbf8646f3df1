// Package status models timed, stacking unit modifiers: the per-unit status
// ledger, runtime bonuses, and the gauge-speed modifiers derived from them.
package status

import (
	"fmt"
	"strings"
)

// Type identifies a status kind. Exactly one Active entry per Type may exist
// on a unit at any time.
type Type int

const (
	Burn Type = iota
	Freeze
	Shock
	Break
	Bleed
	Stun
	Might
	Haste
)

// Def is the static definition of a status kind.
type Def struct {
	Type        Type
	Name        string
	Description string
	// Periodic statuses deal power*stacks damage once per tick threshold.
	Periodic bool
	// GaugeMultiplier scales gauge accrual while the status is active; 1 means no effect.
	GaugeMultiplier float64
	// StallsGauge overrides every other multiplier with zero.
	StallsGauge bool
}

var defs = [...]Def{
	Burn:   {Type: Burn, Name: "Burn", Description: "Periodic fire damage.", Periodic: true, GaugeMultiplier: 1},
	Freeze: {Type: Freeze, Name: "Freeze", Description: "Halves gauge accrual.", GaugeMultiplier: 0.5},
	Shock:  {Type: Shock, Name: "Shock", Description: "Periodic lightning damage.", Periodic: true, GaugeMultiplier: 1},
	Break:  {Type: Break, Name: "Break", Description: "Armor broken; enables follow-ups.", GaugeMultiplier: 1},
	Bleed:  {Type: Bleed, Name: "Bleed", Description: "Periodic bleeding damage.", Periodic: true, GaugeMultiplier: 1},
	Stun:   {Type: Stun, Name: "Stun", Description: "Gauge accrual stalls entirely.", GaugeMultiplier: 0, StallsGauge: true},
	Might:  {Type: Might, Name: "Might", Description: "Attack buff.", GaugeMultiplier: 1},
	Haste:  {Type: Haste, Name: "Haste", Description: "Gauge accrual increased by a quarter.", GaugeMultiplier: 1.25},
}

// All returns every status definition in declaration order.
func All() []Def {
	out := make([]Def, len(defs))
	copy(out, defs[:])
	return out
}

// Lookup returns the definition for t.
//
// Precondition: t must be a declared Type.
func Lookup(t Type) Def {
	if t < 0 || int(t) >= len(defs) {
		panic(fmt.Sprintf("status.Lookup: precondition violated: unknown type %d", int(t)))
	}
	return defs[t]
}

// String returns the display tag used in traces, e.g. "Burn".
func (t Type) String() string {
	if t < 0 || int(t) >= len(defs) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return defs[t].Name
}

// Periodic reports whether t deals damage over time.
func (t Type) Periodic() bool {
	return Lookup(t).Periodic
}

// Parse resolves a display tag (case-insensitive) to a Type.
//
// Postcondition: Returns an error if name matches no status.
func Parse(name string) (Type, error) {
	for _, d := range defs {
		if strings.EqualFold(d.Name, name) {
			return d.Type, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}
