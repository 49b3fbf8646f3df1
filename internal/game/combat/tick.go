package combat

import (
	"math"

	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
	"github.com/cory-johannsen/overstack/internal/game/status"
)

type pendingTick struct {
	unit int
	tick status.PeriodicTick
}

type pendingExpiry struct {
	unit int
	typ  status.Type
}

// AdvanceStatuses runs the status tick engine for dt of elapsed time.
//
// Every status on every unit (living or not) is advanced first; the pending
// periodic ticks are then applied in roster order, damaging only living units
// and dispatching OnStatusTick at depth 0 for each; exhausted statuses are
// then removed with one StatusExpired each. Finally the battle-end check runs.
//
// Postcondition: returns OutcomeNone without doing anything when dt <= 0.
func (b *Battle) AdvanceStatuses(dt float64) Outcome {
	if dt <= 0 {
		return OutcomeNone
	}

	var ticks []pendingTick
	var expiries []pendingExpiry
	for i, rt := range b.runtimes {
		fired, expired := rt.Statuses.Advance(dt)
		for _, f := range fired {
			ticks = append(ticks, pendingTick{unit: i, tick: f})
		}
		for _, t := range expired {
			expiries = append(expiries, pendingExpiry{unit: i, typ: t})
		}
	}

	for _, p := range ticks {
		u := &b.units[p.unit]
		if u.Alive() {
			u.HP = RoundHP(math.Max(u.HP-p.tick.Amount, 0))
		}
		b.rec.Emit(event.StatusTick{
			Dst:        u.Label(),
			Status:     p.tick.Type.String(),
			Amount:     event.Amount(p.tick.Amount),
			DstHPAfter: event.Amount(u.HP),
		})
		ctx := TriggerContext{Trigger: ruleset.OnStatusTick, Src: NoUnit, Dst: p.unit}.withApplied(p.tick.Type)
		b.dispatch(ctx, 0)
	}

	for _, p := range expiries {
		b.runtimes[p.unit].Statuses.RemoveExpired(p.typ)
	}
	for _, p := range expiries {
		b.rec.Emit(event.StatusExpired{Dst: b.units[p.unit].Label(), Status: p.typ.String()})
	}

	return b.CheckEnd()
}
