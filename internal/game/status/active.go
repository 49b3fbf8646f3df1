package status

import "math"

// Tick accounting: each unit of elapsed time adds TickRate to a status's
// meter, and every TickThreshold accumulated fires one periodic tick.
const (
	TickRate      = 100.0
	TickThreshold = 100.0
	// MinDuration is the floor applied to a freshly inserted status.
	MinDuration = 0.1
	// MinTickAmount is the floor for a periodic tick's damage.
	MinTickAmount = 0.01
)

// Active tracks one applied status on a unit.
type Active struct {
	Type      Type
	Stacks    uint32
	Duration  float64
	Power     float64
	TickMeter float64
}

// TickAmount returns the damage one periodic tick of a deals, or 0 for
// non-periodic statuses.
func (a *Active) TickAmount() float64 {
	if !a.Type.Periodic() {
		return 0
	}
	return math.Max(a.Power*float64(a.Stacks), MinTickAmount)
}

// Ledger tracks all statuses currently applied to one unit, in insertion
// order. It is not safe for concurrent use; the caller must serialise access.
type Ledger struct {
	entries []*Active
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Merge adds or updates the status t.
// An existing entry gains max(stacks,1) stacks (saturating) and keeps the
// larger duration and power. A new entry gets max(stacks,1) stacks, duration
// floored at MinDuration, and an empty tick meter.
//
// Postcondition: exactly one entry of type t exists; no field of a
// pre-existing entry decreased.
func (l *Ledger) Merge(t Type, stacks uint32, duration, power float64) *Active {
	add := max(stacks, 1)
	if existing := l.Get(t); existing != nil {
		existing.Stacks = saturatingAdd(existing.Stacks, add)
		existing.Duration = math.Max(existing.Duration, duration)
		existing.Power = math.Max(existing.Power, power)
		return existing
	}
	a := &Active{
		Type:     t,
		Stacks:   add,
		Duration: math.Max(duration, MinDuration),
		Power:    power,
	}
	l.entries = append(l.entries, a)
	return a
}

// RaisePower lifts the power of an existing entry to at least power.
// It is a no-op when t is not present.
func (l *Ledger) RaisePower(t Type, power float64) {
	if existing := l.Get(t); existing != nil {
		existing.Power = math.Max(existing.Power, power)
	}
}

// Get returns the entry for t, or nil.
func (l *Ledger) Get(t Type) *Active {
	for _, a := range l.entries {
		if a.Type == t {
			return a
		}
	}
	return nil
}

// Has reports whether t is present with positive remaining duration.
func (l *Ledger) Has(t Type) bool {
	a := l.Get(t)
	return a != nil && a.Duration > 0
}

// CountActive returns the number of entries with positive remaining duration.
func (l *Ledger) CountActive() int {
	n := 0
	for _, a := range l.entries {
		if a.Duration > 0 {
			n++
		}
	}
	return n
}

// Stacks returns the stack count for t, or 0 if not present.
func (l *Ledger) Stacks(t Type) uint32 {
	if a := l.Get(t); a != nil {
		return a.Stacks
	}
	return 0
}

// All returns the entries in insertion order. The slice is a new allocation,
// but the pointed-to values are shared.
func (l *Ledger) All() []*Active {
	out := make([]*Active, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries, including exhausted ones not yet removed.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// PeriodicTick is one pending damage-over-time tick produced by Advance.
type PeriodicTick struct {
	Type   Type
	Amount float64
}

// Advance subtracts dt from every entry's duration and charges its tick meter
// by dt*TickRate. For periodic entries every full TickThreshold is drained
// into one PeriodicTick. Entries whose duration reached <= 0 are reported in
// expired but are NOT removed; call RemoveExpired for that.
//
// Precondition: dt > 0.
// Postcondition: ticks and expired preserve insertion order.
func (l *Ledger) Advance(dt float64) (ticks []PeriodicTick, expired []Type) {
	for _, a := range l.entries {
		a.Duration -= dt
		a.TickMeter += dt * TickRate
		amount := a.TickAmount()
		for amount > 0 && a.TickMeter >= TickThreshold {
			ticks = append(ticks, PeriodicTick{Type: a.Type, Amount: amount})
			a.TickMeter -= TickThreshold
		}
		if a.Duration <= 0 {
			expired = append(expired, a.Type)
		}
	}
	return ticks, expired
}

// RemoveExpired deletes the entry for t if its duration is <= 0.
//
// Postcondition: an entry of type t with positive duration is left untouched.
func (l *Ledger) RemoveExpired(t Type) {
	kept := l.entries[:0]
	for _, a := range l.entries {
		if a.Type == t && a.Duration <= 0 {
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(l.entries); i++ {
		l.entries[i] = nil
	}
	l.entries = kept
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
