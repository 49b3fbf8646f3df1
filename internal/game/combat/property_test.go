package combat_test

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/overstack/internal/game/combat"
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

func hasTwoDecimals(v float64) bool {
	return math.Abs(v*100-math.Round(v*100)) < 1e-6
}

func TestProperty_BattleInvariantsHoldUnderRandomPlay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		traitIDs := rapid.SliceOfDistinct(rapid.SampledFrom(ruleset.AllTraitIDs()), rapid.ID[string]).Draw(rt, "traits")
		slots := rapid.SliceOfN(rapid.IntRange(-1, 5), 1, 8).Draw(rt, "slots")

		units := []combat.Unit{playerUnit(), droneUnit()}
		if rapid.Bool().Draw(rt, "second_enemy") {
			extra := droneUnit()
			extra.ID = 2
			units = append(units, extra)
		}
		b, rec := newBattle(rt, seed, units, traitIDs...)
		b.Start()

		var outcome combat.Outcome
		for i := 0; i < 2000 && !outcome.Resolved(); i++ {
			skill := ruleset.SlotSkill(slots[i%len(slots)])
			outcome = subStep(b, rec, 0.1, skill)

			for u := 0; u < b.Len(); u++ {
				unit := b.Unit(u)
				if unit.HP < 0 || unit.HP > unit.MaxHP {
					rt.Fatalf("unit %d hp %v outside [0,%v]", u, unit.HP, unit.MaxHP)
				}
				if !hasTwoDecimals(unit.HP) {
					rt.Fatalf("unit %d hp %v has more than two decimals", u, unit.HP)
				}
			}
			if b.MaxDepth() >= combat.MaxChainDepth {
				rt.Fatalf("chain depth %d reached bound", b.MaxDepth())
			}
		}

		ends := event.Count(rec.Drain(), event.KindBattleEnd)
		if outcome.Resolved() && ends != 1 {
			rt.Fatalf("resolved battle emitted %d BattleEnd events", ends)
		}
		if !outcome.Resolved() && ends != 0 {
			rt.Fatalf("unresolved battle emitted %d BattleEnd events", ends)
		}
	})
}

func TestProperty_SameSeedSameTrace(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		slot := rapid.IntRange(0, 3).Draw(rt, "slot")

		play := func() []string {
			b, rec := newBattle(rt, seed, []combat.Unit{playerUnit(), droneUnit()}, ruleset.SelectableTraitIDs()...)
			for i := 0; i < 400; i++ {
				if subStep(b, rec, 0.1, ruleset.SlotSkill(slot)).Resolved() {
					break
				}
			}
			return event.Lines(rec.Drain())
		}

		a, c := play(), play()
		if len(a) != len(c) {
			rt.Fatalf("trace lengths differ: %d vs %d", len(a), len(c))
		}
		for i := range a {
			if a[i] != c[i] {
				rt.Fatalf("line %d differs:\n%s\n%s", i, a[i], c[i])
			}
		}
	})
}
