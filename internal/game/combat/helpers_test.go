package combat_test

import (
	"github.com/cory-johannsen/overstack/internal/game/combat"
	"github.com/cory-johannsen/overstack/internal/game/dice"
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

func playerUnit() combat.Unit {
	return combat.Unit{ID: 0, Name: "Player", Team: ruleset.TeamPlayer, HP: 140, MaxHP: 140, Attack: 17, Speed: 35}
}

func droneUnit() combat.Unit {
	return combat.Unit{ID: 1, Name: "Rogue Drone", Team: ruleset.TeamEnemy, HP: 84, MaxHP: 84, Attack: 11, Speed: 28}
}

// fataler is satisfied by both *testing.T and *rapid.T.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func traitsByID(t fataler, ids ...string) []*ruleset.Trait {
	t.Helper()
	out := make([]*ruleset.Trait, 0, len(ids))
	for _, id := range ids {
		tr, ok := ruleset.TraitByID(id)
		if !ok {
			t.Fatalf("unknown trait %q", id)
		}
		out = append(out, tr)
	}
	return out
}

// newBattle builds a battle with a seeded roller and a fresh recorder.
func newBattle(t fataler, seed uint64, units []combat.Unit, traitIDs ...string) (*combat.Battle, *event.Recorder) {
	t.Helper()
	rec := event.NewRecorder()
	b := combat.NewBattle(units, combat.Config{
		Traits:   traitsByID(t, traitIDs...),
		Roller:   dice.NewLoggedRoller(dice.NewLCGSource(seed), nil),
		Recorder: rec,
	})
	return b, rec
}

// subStep runs one scheduler sub-step the way the run orchestrator does,
// using skill for every ready unit.
func subStep(b *combat.Battle, rec *event.Recorder, dt float64, playerSkill *ruleset.Skill) combat.Outcome {
	rec.SetTick(b.AdvanceTick())
	if o := b.AdvanceStatuses(dt); o.Resolved() {
		return o
	}
	b.AccrueGauges(dt)
	for {
		actor, ok := b.NextReady()
		if !ok {
			return combat.OutcomeNone
		}
		skill := ruleset.MustSkill(ruleset.BasicAttackID)
		if b.Unit(actor).Team == ruleset.TeamPlayer {
			skill = playerSkill
		}
		o, acted := b.ExecuteTurn(actor, skill)
		if o.Resolved() {
			return o
		}
		if !acted {
			return combat.OutcomeNone
		}
	}
}

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}
