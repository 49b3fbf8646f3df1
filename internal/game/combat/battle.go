package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/dice"
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
	"github.com/cory-johannsen/overstack/internal/game/status"
)

// Battle is the mutable state of one encounter.
type Battle struct {
	units    []Unit
	runtimes []*status.Runtime
	tick     uint32
	traits   []*ruleset.Trait
	roller   *dice.Roller
	rec      *event.Recorder
	logger   *zap.Logger
	maxDepth int
}

// Config collects a Battle's collaborators.
type Config struct {
	// Traits are the active traits in activation order.
	Traits []*ruleset.Trait
	// Roller is the run's random source.
	Roller *dice.Roller
	// Recorder receives trace events.
	Recorder *event.Recorder
	// Logger may be nil.
	Logger *zap.Logger
}

// NewBattle creates a battle over a copy of units.
//
// Precondition: cfg.Roller and cfg.Recorder must be non-nil.
// Postcondition: every unit has an empty status runtime; the tick counter is 0.
func NewBattle(units []Unit, cfg Config) *Battle {
	if cfg.Roller == nil || cfg.Recorder == nil {
		panic("combat.NewBattle: precondition violated: roller and recorder must be non-nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Battle{
		units:    append([]Unit(nil), units...),
		runtimes: make([]*status.Runtime, len(units)),
		traits:   cfg.Traits,
		roller:   cfg.Roller,
		rec:      cfg.Recorder,
		logger:   logger,
	}
	for i := range b.runtimes {
		b.runtimes[i] = status.NewRuntime()
	}
	return b
}

// Len returns the roster size.
func (b *Battle) Len() int { return len(b.units) }

// Unit returns the unit at index i.
//
// Precondition: 0 <= i < Len().
func (b *Battle) Unit(i int) *Unit { return &b.units[i] }

// Runtime returns the status runtime of the unit at index i.
//
// Precondition: 0 <= i < Len().
func (b *Battle) Runtime(i int) *status.Runtime { return b.runtimes[i] }

// Tick returns the number of sub-steps taken so far.
func (b *Battle) Tick() uint32 { return b.tick }

// MaxDepth returns the deepest chain depth at which dispatch or an effect ran.
func (b *Battle) MaxDepth() int { return b.maxDepth }

// AdvanceTick increments the sub-step counter and returns the new value.
func (b *Battle) AdvanceTick() uint32 {
	if b.tick < ^uint32(0) {
		b.tick++
	}
	return b.tick
}

// CeilingReached reports whether the battle has used its sub-step budget.
func (b *Battle) CeilingReached() bool {
	return b.tick >= TickCeiling
}

// FirstOf returns the index of the first unit on team.
func (b *Battle) FirstOf(team ruleset.Team) (int, bool) {
	for i := range b.units {
		if b.units[i].Team == team {
			return i, true
		}
	}
	return NoUnit, false
}

// anyAlive reports whether team has a living unit.
func (b *Battle) anyAlive(team ruleset.Team) bool {
	for i := range b.units {
		if b.units[i].Team == team && b.units[i].Alive() {
			return true
		}
	}
	return false
}

// Start dispatches OnBattleStart reactions.
func (b *Battle) Start() {
	b.dispatch(TriggerContext{Trigger: ruleset.OnBattleStart, Src: NoUnit, Dst: NoUnit}, 0)
}

// CheckEnd emits BattleEnd and dispatches OnBattleEnd when one side has no
// living units.
//
// Postcondition: returns OutcomeWin when no enemy lives, OutcomeLose when no
// player lives, OutcomeNone otherwise; events are emitted only when resolved.
func (b *Battle) CheckEnd() Outcome {
	if !b.anyAlive(ruleset.TeamEnemy) {
		hp := 0.0
		if p, ok := b.FirstOf(ruleset.TeamPlayer); ok {
			hp = b.units[p].HP
		}
		b.end(OutcomeWin, hp)
		return OutcomeWin
	}
	if !b.anyAlive(ruleset.TeamPlayer) {
		b.end(OutcomeLose, 0)
		return OutcomeLose
	}
	return OutcomeNone
}

// ForceDefeat ends the battle as a loss regardless of unit state.
func (b *Battle) ForceDefeat() Outcome {
	b.logger.Warn("battle hit tick ceiling; forcing defeat", zap.Uint32("tick", b.tick))
	b.end(OutcomeLose, 0)
	return OutcomeLose
}

func (b *Battle) end(o Outcome, playerHP float64) {
	b.rec.Emit(event.BattleEnd{Result: o.String(), PlayerHPAfter: event.Amount(playerHP)})
	b.logger.Debug("battle ended",
		zap.String("result", o.String()),
		zap.Uint32("tick", b.tick),
		zap.Float64("player_hp", playerHP),
	)
	b.dispatch(TriggerContext{Trigger: ruleset.OnBattleEnd, Src: NoUnit, Dst: NoUnit}, 0)
}
