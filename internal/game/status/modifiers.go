package status

// GaugeMultiplier returns the gauge accrual multiplier produced by l's active
// statuses. Multipliers combine multiplicatively; a stalling status (Stun)
// overrides the product with zero.
//
// Postcondition: Returns >= 0; returns 0 iff a stalling status is active.
func GaugeMultiplier(l *Ledger) float64 {
	mult := 1.0
	stalled := false
	for _, d := range defs {
		if !l.Has(d.Type) {
			continue
		}
		if d.StallsGauge {
			stalled = true
			continue
		}
		mult *= d.GaugeMultiplier
	}
	if stalled {
		return 0
	}
	return mult
}
