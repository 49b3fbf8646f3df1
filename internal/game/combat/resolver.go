package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

// origin identifies who is resolving an effect: a skill being used, or a
// trait rule reacting to a trigger. Exactly one of skill and trait is set.
type origin struct {
	skill *ruleset.Skill
	// amp is the running conditional damage amplifier of a skill use.
	amp   *float64
	trait *ruleset.Trait
}

// resolveEffect applies eff in ctx at the given chain depth.
func (b *Battle) resolveEffect(o origin, eff ruleset.Effect, ctx TriggerContext, depth int) {
	if depth >= MaxChainDepth {
		b.logger.Debug("effect chain truncated", zap.Int("depth", depth), zap.String("effect", eff.Summary()))
		return
	}
	b.observeDepth(depth)

	switch e := eff.(type) {
	case ruleset.DealDamage:
		if !b.validIndex(ctx.Src) || !b.validIndex(ctx.Dst) {
			return
		}
		atk := float64(b.units[ctx.Src].Attack)
		var amount float64
		if o.skill != nil {
			amount = atk*o.skill.BaseMultiplier*e.Multiplier*(*o.amp) + o.skill.FlatBonus + e.Flat
		} else {
			amount = atk*e.Multiplier + e.Flat
		}
		b.applyDamage(ctx.Src, ctx.Dst, math.Max(amount, MinDamage), depth)
		b.traitApplied(o, e)

	case ruleset.ApplyStatus:
		if !b.validIndex(ctx.Src) || !b.validIndex(ctx.Dst) {
			return
		}
		b.applyStatus(ctx.Src, ctx.Dst, e, depth)
		b.traitApplied(o, e)

	case ruleset.ConditionalDamageAmp:
		if !b.Evaluate(e.When, ctx) {
			return
		}
		if o.skill != nil {
			*o.amp *= math.Max(e.Amp, MinAmp)
			return
		}
		b.resolveEffect(o, ruleset.DealDamage{Multiplier: e.Amp}, ctx, depth+1)

	case ruleset.ConditionalApplyStatus:
		if !b.Evaluate(e.When, ctx) {
			return
		}
		next := ruleset.ApplyStatus{Status: e.Status, Chance: e.Chance, Duration: e.Duration, Stacks: e.Stacks, Power: e.Power}
		if o.skill != nil {
			b.resolveEffect(o, next, ctx, depth)
			return
		}
		b.resolveEffect(o, next, ctx, depth+1)

	case ruleset.SelfBuff:
		if !b.validIndex(ctx.Src) {
			return
		}
		b.applyStatus(ctx.Src, ctx.Src, ruleset.ApplyStatus{
			Status:   e.Stat.BuffStatus(),
			Chance:   1,
			Duration: e.Duration,
			Stacks:   stacksFromAmount(e.Amount),
			Power:    e.Amount,
		}, depth)
		b.traitApplied(o, e)

	case ruleset.AddProcBonus:
		if b.validIndex(ctx.Src) {
			b.runtimes[ctx.Src].ProcBonus += e.Amount
		}
		b.traitApplied(o, e)

	case ruleset.AddResBonus:
		if b.validIndex(ctx.Src) {
			b.runtimes[ctx.Src].ResBonus += e.Amount
		}
		b.traitApplied(o, e)

	case ruleset.ModifyStatusPower:
		if b.validIndex(ctx.Src) {
			b.runtimes[ctx.Src].RaisePowerMultiplier(e.Status, e.Multiplier)
		}
		b.traitApplied(o, e)

	case ruleset.AddStatusStacks:
		dst, ok := b.resolveTarget(e.Target, ctx)
		if !ok {
			return
		}
		src := ctx.Src
		if !b.validIndex(src) {
			src = dst
		}
		b.applyStatus(src, dst, ruleset.ApplyStatus{
			Status: e.Status, Chance: 1, Duration: 1, Stacks: max(e.Stacks, 1), Power: 1,
		}, depth)
		b.traitApplied(o, e)

	case ruleset.DealPureDamage:
		dst, ok := b.resolveTarget(e.Target, ctx)
		if !ok {
			return
		}
		src := ctx.Src
		if !b.validIndex(src) {
			src = dst
		}
		b.applyDamage(src, dst, math.Max(e.Amount, MinDamage), depth)
		b.traitApplied(o, e)
	}
}

// traitApplied records a TraitEffectApplied event for trait-origin effects.
func (b *Battle) traitApplied(o origin, e ruleset.Effect) {
	if o.trait == nil {
		return
	}
	b.rec.Emit(event.TraitEffectApplied{TraitName: o.trait.Name, EffectSummary: e.Summary()})
}

func (b *Battle) observeDepth(depth int) {
	if depth > b.maxDepth {
		b.maxDepth = depth
	}
}

// applyDamage deals amount to dst and dispatches OnDamageDealt one level deeper.
func (b *Battle) applyDamage(src, dst int, amount float64, depth int) {
	dealt := math.Max(amount, MinDamage)
	u := &b.units[dst]
	u.applyDamage(dealt)
	b.rec.Emit(event.DamageDealt{
		Src:        b.units[src].Label(),
		Dst:        u.Label(),
		Amount:     event.Amount(dealt),
		DstHPAfter: event.Amount(u.HP),
	})
	b.dispatch(TriggerContext{Trigger: ruleset.OnDamageDealt, Src: src, Dst: dst}, depth+1)
}

// ApplyStatus attempts as from src onto dst outside of any chain, exactly as
// a skill effect would at depth 0.
//
// Precondition: src and dst are valid roster indices.
func (b *Battle) ApplyStatus(src, dst int, as ruleset.ApplyStatus) {
	b.applyStatus(src, dst, as, 0)
}

// applyStatus rolls the application's chance, merges the status into dst's ledger, and
// dispatches OnStatusApplied one level deeper.
//
// The stored power uses the source's multiplier at merge time. A reaction
// dispatched by this application may raise that multiplier; the entry's power
// is then raised to the post-reaction value so the boost covers the
// application that triggered it.
func (b *Battle) applyStatus(src, dst int, as ruleset.ApplyStatus, depth int) {
	chance := as.Chance + b.runtimes[src].ProcBonus - b.runtimes[dst].ResBonus
	if !b.roller.Chance(math.Min(math.Max(chance, 0), 1)) {
		return
	}

	adjusted := as.Power * b.runtimes[src].PowerMultiplier(as.Status)
	b.runtimes[dst].Statuses.Merge(as.Status, as.Stacks, as.Duration, adjusted)

	b.rec.Emit(event.StatusApplied{
		Src:      b.units[src].Label(),
		Dst:      b.units[dst].Label(),
		Status:   as.Status.String(),
		Stacks:   max(as.Stacks, 1),
		Duration: uint32(math.Round(math.Max(as.Duration, 0))),
	})

	ctx := TriggerContext{Trigger: ruleset.OnStatusApplied, Src: src, Dst: dst}.withApplied(as.Status)
	b.dispatch(ctx, depth+1)

	if post := as.Power * b.runtimes[src].PowerMultiplier(as.Status); post > adjusted {
		b.runtimes[dst].Statuses.RaisePower(as.Status, post)
	}
}

// stacksFromAmount converts a buff amount to a stack count of at least one.
func stacksFromAmount(amount float64) uint32 {
	v := math.Max(amount, 1)
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

