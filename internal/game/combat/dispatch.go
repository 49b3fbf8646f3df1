package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/event"
)

// dispatch runs every active trait rule matching ctx, in activation order
// then declaration order. Each matching rule emits TraitTriggered and
// resolves its effects one level deeper. Nothing happens at MaxChainDepth or
// beyond.
func (b *Battle) dispatch(ctx TriggerContext, depth int) {
	if depth >= MaxChainDepth {
		b.logger.Debug("trigger chain truncated",
			zap.Int("depth", depth),
			zap.Stringer("trigger", ctx.Trigger),
		)
		return
	}
	b.observeDepth(depth)

	for _, tr := range b.traits {
		for _, rule := range tr.Rules {
			if rule.Trigger != ctx.Trigger {
				continue
			}
			if !b.Evaluate(rule.When, ctx) {
				continue
			}
			b.rec.Emit(event.TraitTriggered{TraitName: tr.Name, TriggerType: rule.Trigger.String()})
			for _, eff := range rule.Effects {
				b.resolveEffect(origin{trait: tr}, eff, ctx, depth+1)
			}
		}
	}
}
