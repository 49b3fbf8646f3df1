package status

import "math"

// MinPowerMultiplier is the floor for every per-status power multiplier.
const MinPowerMultiplier = 0.1

// Runtime is the mutable per-unit ledger kept parallel to the battle roster:
// applied statuses plus the bonuses traits grant during a battle.
type Runtime struct {
	Statuses  *Ledger
	ProcBonus float64
	ResBonus  float64
	powerMul  map[Type]float64
}

// NewRuntime creates an empty Runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		Statuses: NewLedger(),
		powerMul: make(map[Type]float64),
	}
}

// PowerMultiplier returns the multiplier applied to statuses of type t that
// this unit inflicts.
//
// Postcondition: Returns >= MinPowerMultiplier; 1 when never raised.
func (r *Runtime) PowerMultiplier(t Type) float64 {
	m, ok := r.powerMul[t]
	if !ok {
		m = 1
	}
	return math.Max(m, MinPowerMultiplier)
}

// RaisePowerMultiplier sets the multiplier for t to max(current, max(mul, MinPowerMultiplier)).
//
// Postcondition: PowerMultiplier(t) never decreases.
func (r *Runtime) RaisePowerMultiplier(t Type, mul float64) {
	cur, ok := r.powerMul[t]
	if !ok {
		cur = 1
	}
	r.powerMul[t] = math.Max(cur, math.Max(mul, MinPowerMultiplier))
}
