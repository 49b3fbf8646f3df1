package run

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/combat"
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

// StepResult is the outcome of one Step call.
type StepResult struct {
	// Events are the trace events produced by the call, in order.
	Events    []event.Event
	NeedInput bool
	Ended     bool
	// Err is non-nil only for an invalid handle or action, in which case no
	// simulation progress was made.
	Err error
}

// ErrorString returns Err's message, or "" when Err is nil.
func (s StepResult) ErrorString() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Lines returns the events encoded as JSON lines.
func (s StepResult) Lines() []string {
	return event.Lines(s.Events)
}

// Step advances the run by dt of simulated time, in sub-steps of at most
// SubStep, using action for the player's next turn.
//
// The call stops early when a battle resolves, the run ends, or the player
// becomes ready with no action queued; in the last case NeedInput is set and
// the next call must supply an action to make progress. An action that is not
// used during the call is discarded.
//
// Postcondition: the run ends as a defeat once a battle reaches
// combat.TickCeiling sub-steps.
func (r *Run) Step(dt float64, action *Action) StepResult {
	if r.ended {
		return StepResult{Ended: true}
	}

	if r.nodeIndex == 0 && r.battle == nil {
		r.rec.Emit(event.RunStart{Seed: r.cfg.Seed})
	}
	r.ensureBattle()
	if r.ended {
		return StepResult{Events: r.rec.Drain(), Ended: true}
	}

	queued := action
	if r.waiting && queued == nil {
		return StepResult{Events: r.rec.Drain(), NeedInput: true}
	}

	remaining := 0.0
	if dt > 0 {
		remaining = dt
	}
	needInput := false

	for remaining > 0 || (r.waiting && queued != nil) {
		if r.battle.CeilingReached() {
			r.finalize(r.battle.ForceDefeat())
			break
		}
		r.rec.SetTick(r.battle.AdvanceTick())

		stepDT := math.Min(remaining, SubStep)
		remaining = math.Max(remaining-stepDT, 0)
		r.elapsed += stepDT

		if o := r.battle.AdvanceStatuses(stepDT); o.Resolved() {
			r.finalize(o)
			break
		}
		if stepDT > 0 {
			r.battle.AccrueGauges(stepDT)
		}

		needInput, queued = r.takeTurns(queued)
		if r.ended || r.battle == nil || needInput || stepDT == 0 {
			break
		}
	}

	if r.battle == nil && !r.ended {
		r.ensureBattle()
	}

	return StepResult{Events: r.rec.Drain(), NeedInput: needInput, Ended: r.ended}
}

// takeTurns lets every ready unit act, highest gauge first. It suspends when
// the player is ready and no action is queued.
func (r *Run) takeTurns(queued *Action) (needInput bool, rest *Action) {
	for {
		actor, ok := r.battle.NextReady()
		if !ok {
			return false, queued
		}

		skill := ruleset.MustSkill(ruleset.BasicAttackID)
		if r.battle.Unit(actor).Team == ruleset.TeamPlayer {
			if queued == nil {
				r.waiting = true
				return true, nil
			}
			skill = queued.Skill()
			queued = nil
			r.waiting = false
		}

		outcome, acted := r.battle.ExecuteTurn(actor, skill)
		if outcome.Resolved() {
			r.finalize(outcome)
			return false, queued
		}
		if !acted {
			return false, queued
		}
	}
}

// ensureBattle opens the next node's battle, or ends the run as a victory
// once every node has been cleared.
func (r *Run) ensureBattle() {
	if r.battle != nil || r.ended {
		return
	}
	if r.nodeIndex >= r.maxNodes {
		r.end(ResultWin)
		return
	}

	enc := r.encounters[r.nodeIndex]
	r.nodeIndex++
	r.rec.Emit(event.NodeStart{NodeIndex: r.nodeIndex, NodeType: enc.node.Type.Label()})

	r.battleIndex++
	units := r.roster(enc)
	r.battle = combat.NewBattle(units, combat.Config{
		Traits:   r.traits,
		Roller:   r.roller,
		Recorder: r.rec,
		Logger:   r.logger,
	})
	r.rec.Emit(event.BattleStart{BattleIndex: r.battleIndex, EnemyName: units[1].Name})
	r.logger.Debug("battle started",
		zap.Uint32("node_index", r.nodeIndex),
		zap.Uint32("battle_index", r.battleIndex),
		zap.String("enemy", units[1].Name),
		zap.Float64("player_hp", r.playerHP),
	)
	r.battle.Start()
}

// roster builds the unit list for enc: the player at index 0, then one unit
// per enemy template.
func (r *Run) roster(enc encounter) []combat.Unit {
	units := make([]combat.Unit, 0, len(enc.enemies)+1)
	units = append(units, combat.Unit{
		ID:     0,
		Name:   PlayerName,
		Team:   ruleset.TeamPlayer,
		HP:     combat.RoundHP(r.playerHP),
		MaxHP:  combat.RoundHP(r.player.MaxHP),
		Attack: r.player.Attack,
		Speed:  r.player.Speed,
	})
	for i, t := range enc.enemies {
		units = append(units, combat.Unit{
			ID:     i + 1,
			Name:   t.Name,
			Team:   ruleset.TeamEnemy,
			HP:     combat.RoundHP(t.MaxHP),
			MaxHP:  combat.RoundHP(t.MaxHP),
			Attack: t.Attack,
			Speed:  t.Speed,
		})
	}
	return units
}

// finalize applies a resolved battle to the run. A win carries the player's
// HP forward plus VictoryHeal of max HP and discards the battle; a loss ends
// the run.
func (r *Run) finalize(o combat.Outcome) {
	r.waiting = false
	if o == combat.OutcomeWin {
		if p, ok := r.battle.FirstOf(ruleset.TeamPlayer); ok {
			r.playerHP = r.battle.Unit(p).HP
		}
		heal := combat.RoundHP(r.player.MaxHP * VictoryHeal)
		r.playerHP = combat.RoundHP(math.Min(r.playerHP+heal, r.player.MaxHP))
		r.battle = nil
		if r.nodeIndex >= r.maxNodes {
			r.end(ResultWin)
		}
		return
	}
	r.playerHP = 0
	r.battle = nil
	r.end(ResultLose)
}

func (r *Run) end(result string) {
	r.ended = true
	r.result = result
	r.rec.Emit(event.RunEnd{Result: result, FinalNodeIndex: r.nodeIndex})
	r.logger.Debug("run ended",
		zap.String("result", result),
		zap.Uint32("final_node_index", r.nodeIndex),
		zap.Float64("elapsed", r.elapsed),
	)
}
