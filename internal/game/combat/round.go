package combat

import (
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

// ExecuteTurn has actor spend GaugeThreshold gauge to use skill on a random
// living opponent, then checks for battle end.
//
// Postcondition: acted is false and nothing changes when the actor is dead,
// below threshold, or has no living opponent.
func (b *Battle) ExecuteTurn(actor int, skill *ruleset.Skill) (outcome Outcome, acted bool) {
	u := &b.units[actor]
	if !u.Alive() || u.Gauge < GaugeThreshold {
		return OutcomeNone, false
	}
	target, ok := b.pickTarget(u.Team.Opponent())
	if !ok {
		return OutcomeNone, false
	}
	u.Gauge -= GaugeThreshold
	b.executeSkill(actor, target, skill)
	return b.CheckEnd(), true
}

// pickTarget chooses a random living unit of team.
func (b *Battle) pickTarget(team ruleset.Team) (int, bool) {
	var candidates []int
	for i := range b.units {
		if b.units[i].Team == team && b.units[i].Alive() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return NoUnit, false
	}
	return candidates[b.roller.Pick(len(candidates))], true
}

// executeSkill resolves skill's effects from actor onto target at depth 0.
// ConditionalDamageAmp effects scale every DealDamage that follows them.
func (b *Battle) executeSkill(actor, target int, skill *ruleset.Skill) {
	label := b.units[actor].Label()
	b.rec.Emit(event.TurnReady{Actor: label})
	b.dispatch(TriggerContext{Trigger: ruleset.OnTurnStart, Src: actor, Dst: NoUnit}, 0)
	b.rec.Emit(event.ActionUsed{Actor: label, ActionName: skill.Name})

	ctx := TriggerContext{Trigger: ruleset.OnActionUsed, Src: actor, Dst: target}
	b.dispatch(ctx, 0)

	amp := 1.0
	o := origin{skill: skill, amp: &amp}
	for _, eff := range skill.Effects {
		b.resolveEffect(o, eff, ctx, 0)
	}
}
