package combat

import "github.com/cory-johannsen/overstack/internal/game/status"

// AccrueGauges adds speed*dt*multiplier to every living unit's gauge, where
// the multiplier comes from the unit's active statuses.
//
// Precondition: dt >= 0.
func (b *Battle) AccrueGauges(dt float64) {
	for i := range b.units {
		u := &b.units[i]
		if !u.Alive() {
			continue
		}
		u.Gauge += u.Speed * dt * status.GaugeMultiplier(b.runtimes[i].Statuses)
	}
}

// NextReady returns the living unit with the highest gauge at or above
// GaugeThreshold. Ties go to the lowest roster index.
func (b *Battle) NextReady() (int, bool) {
	best := NoUnit
	for i := range b.units {
		u := &b.units[i]
		if !u.Alive() || u.Gauge < GaugeThreshold {
			continue
		}
		if best == NoUnit || u.Gauge > b.units[best].Gauge {
			best = i
		}
	}
	return best, best != NoUnit
}
