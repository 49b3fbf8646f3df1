package combat

import (
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
	"github.com/cory-johannsen/overstack/internal/game/status"
)

// TriggerContext describes the event a rule or effect is evaluated against.
// Src and Dst are roster indices or NoUnit.
type TriggerContext struct {
	Trigger    ruleset.TriggerType
	Src        int
	Dst        int
	Applied    status.Type
	HasApplied bool
}

func (c TriggerContext) withApplied(t status.Type) TriggerContext {
	c.Applied = t
	c.HasApplied = true
	return c
}

func (b *Battle) validIndex(i int) bool {
	return i >= 0 && i < len(b.units)
}

// Evaluate reports whether cond holds in ctx. Only RandomRollBelow has a side
// effect: it consumes one draw. All evaluates every child, so draws made by
// later children happen even after an earlier child fails.
func (b *Battle) Evaluate(cond ruleset.Condition, ctx TriggerContext) bool {
	switch c := cond.(type) {
	case ruleset.Always:
		return true
	case ruleset.SrcIsPlayer:
		return b.validIndex(ctx.Src) && b.units[ctx.Src].Team == ruleset.TeamPlayer
	case ruleset.DstIsEnemy:
		return b.validIndex(ctx.Dst) && b.units[ctx.Dst].Team == ruleset.TeamEnemy
	case ruleset.AppliedStatusIs:
		return ctx.HasApplied && ctx.Applied == c.Status
	case ruleset.RandomRollBelow:
		return b.roller.Chance(c.Chance)
	case ruleset.TargetHPBelow:
		return b.validIndex(ctx.Dst) && b.units[ctx.Dst].HPRatio() < c.Ratio
	case ruleset.TargetHasStatus:
		return b.validIndex(ctx.Dst) && b.runtimes[ctx.Dst].Statuses.Has(c.Status)
	case ruleset.TargetStatusCountAtLeast:
		return b.validIndex(ctx.Dst) && b.runtimes[ctx.Dst].Statuses.CountActive() >= c.Count
	case ruleset.All:
		ok := true
		for _, child := range c.Conditions {
			if !b.Evaluate(child, ctx) {
				ok = false
			}
		}
		return ok
	default:
		return false
	}
}

// resolveTarget maps an effect target to a roster index.
func (b *Battle) resolveTarget(t ruleset.Target, ctx TriggerContext) (int, bool) {
	switch t {
	case ruleset.TargetSrc:
		return ctx.Src, b.validIndex(ctx.Src)
	case ruleset.TargetDst:
		return ctx.Dst, b.validIndex(ctx.Dst)
	case ruleset.TargetPlayer:
		return b.FirstOf(ruleset.TeamPlayer)
	case ruleset.TargetEnemy:
		for i := range b.units {
			if b.units[i].Team == ruleset.TeamEnemy && b.units[i].Alive() {
				return i, true
			}
		}
		return b.FirstOf(ruleset.TeamEnemy)
	}
	return NoUnit, false
}
