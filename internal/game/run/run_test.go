package run_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/run"
)

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := run.New(run.Config{Seed: 1, MaxNodes: 1})
	assert.ErrorIs(t, err, run.ErrNoCatalog)
}

func TestNew_RejectsUnknownTraits(t *testing.T) {
	_, err := run.New(run.Config{Seed: 1, MaxNodes: 1, Traits: []string{"ruthless", "telekinesis"}, Catalog: embeddedCatalog(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telekinesis")
}

func TestNew_ClampsMaxNodes(t *testing.T) {
	assert.Equal(t, uint32(1), newRun(t, 1, 0).MaxNodes())
	assert.Equal(t, uint32(1), newRun(t, 1, -3).MaxNodes())
	assert.Equal(t, uint32(4), newRun(t, 1, 4).MaxNodes())
	assert.Equal(t, uint32(6), newRun(t, 1, 99).MaxNodes())
}

func TestStep_FirstCallOpensFirstBattle(t *testing.T) {
	r := newRun(t, 9, 6)
	res := r.Step(0, nil)

	require.NoError(t, res.Err)
	assert.False(t, res.NeedInput)
	assert.False(t, res.Ended)
	require.Len(t, res.Events, 3)
	assert.Equal(t, event.RunStart{Seed: 9}, res.Events[0].Payload)
	assert.Equal(t, event.NodeStart{NodeIndex: 1, NodeType: "Battle"}, res.Events[1].Payload)
	assert.Equal(t, event.BattleStart{BattleIndex: 1, EnemyName: "Rogue Drone"}, res.Events[2].Payload)
	for _, e := range res.Events {
		assert.Equal(t, uint32(0), e.Tick)
	}

	snap := r.Snapshot()
	assert.Equal(t, run.StateRunning, snap.RunState)
	assert.Equal(t, run.ResultNone, snap.Result)
	assert.Equal(t, 140.0, snap.Player.HP)
	assert.Equal(t, 84.0, snap.Enemy.MaxHP)
}

func TestStep_BasicAttacksWinSingleNodeRun(t *testing.T) {
	r := newRun(t, 1, 1)
	var all []event.Event
	for i := 0; i < 1000; i++ {
		res := r.Step(0.1, run.Basic())
		require.False(t, res.NeedInput)
		all = append(all, res.Events...)
		if res.Ended {
			break
		}
	}

	require.True(t, r.Ended())
	ends := payloadsOf[event.BattleEnd](all)
	require.Len(t, ends, 1)
	assert.Equal(t, event.BattleEnd{Result: "win", PlayerHPAfter: 107}, ends[0])
	assert.Equal(t, event.RunEnd{Result: "win", FinalNodeIndex: 1}, all[len(all)-1].Payload)

	snap := r.Snapshot()
	assert.Equal(t, run.StateEnded, snap.RunState)
	assert.Equal(t, run.ResultWin, snap.Result)
	assert.Equal(t, 135.0, snap.Player.HP)
	assert.Equal(t, 0.0, snap.Enemy.MaxHP)
	assert.InDelta(t, 14.3, snap.Elapsed, 1e-6)
}

func TestStep_VictoryOpensNextNodeInSameCall(t *testing.T) {
	r := newRun(t, 1, 2)
	for i := 0; i < 1000; i++ {
		res := r.Step(0.1, run.Basic())
		if len(payloadsOf[event.BattleEnd](res.Events)) == 0 {
			continue
		}
		assert.False(t, res.Ended)
		nodes := payloadsOf[event.NodeStart](res.Events)
		require.Len(t, nodes, 1)
		assert.Equal(t, event.NodeStart{NodeIndex: 2, NodeType: "Battle"}, nodes[0])
		assert.Equal(t, event.BattleStart{BattleIndex: 2, EnemyName: "Rogue Drone"}, res.Events[len(res.Events)-1].Payload)

		snap := r.Snapshot()
		assert.Equal(t, 135.0, snap.Player.HP)
		assert.Equal(t, 84.0, snap.Enemy.HP)
		return
	}
	t.Fatal("first battle never ended")
}

func TestStep_SuspendsWhenPlayerReadyWithoutAction(t *testing.T) {
	r := newRun(t, 1, 1)
	res := r.Step(10, nil)

	assert.True(t, res.NeedInput)
	assert.False(t, res.Ended)
	assert.Empty(t, payloadsOf[event.TurnReady](res.Events))
	assert.True(t, r.WaitingForInput())

	snap := r.Snapshot()
	assert.InDelta(t, 2.9, snap.Elapsed, 1e-6)
	assert.InDelta(t, 101.5, snap.Player.Gauge, 1e-6)
	assert.InDelta(t, 81.2, snap.Enemy.Gauge, 1e-6)

	again := r.Step(5, nil)
	assert.True(t, again.NeedInput)
	assert.Empty(t, again.Events)
	assert.InDelta(t, 2.9, r.Elapsed(), 1e-6)

	resumed := r.Step(0, run.Basic())
	assert.False(t, resumed.NeedInput)
	assert.False(t, r.WaitingForInput())
	assert.Equal(t, []event.TurnReady{{Actor: "player"}}, payloadsOf[event.TurnReady](resumed.Events))
	assert.Equal(t, []event.DamageDealt{{Src: "player", Dst: "enemy", Amount: 17, DstHPAfter: 67}}, payloadsOf[event.DamageDealt](resumed.Events))
	assert.InDelta(t, 2.9, r.Elapsed(), 1e-6)
	assert.InDelta(t, 1.5, r.Snapshot().Player.Gauge, 1e-6)
}

func TestStep_ZeroDeltaWhileNotWaitingMakesNoProgress(t *testing.T) {
	r := newRun(t, 1, 1)
	r.Step(0, nil)
	res := r.Step(0, run.Basic())
	assert.Empty(t, res.Events)
	assert.False(t, res.NeedInput)
	assert.Equal(t, 0.0, r.Elapsed())
}

func TestStep_AfterEndReturnsEndedWithNoEvents(t *testing.T) {
	r := newRun(t, 1, 1)
	for !r.Ended() {
		r.Step(1, run.Basic())
	}
	res := r.Step(1, run.Basic())
	assert.True(t, res.Ended)
	assert.Empty(t, res.Events)
	assert.NoError(t, res.Err)
}

func TestStep_DefeatEndsRun(t *testing.T) {
	c := customCatalog(t,
		"  max_hp: 140\n  attack: 17\n  speed: 0",
		"max_hp: 84\nattack: 50\nspeed: 50",
	)
	r, err := run.New(run.Config{Seed: 1, MaxNodes: 1, Catalog: c})
	require.NoError(t, err)

	res := r.Step(10, nil)
	require.True(t, res.Ended)
	assert.False(t, res.NeedInput)
	assert.Equal(t, []event.BattleEnd{{Result: "lose", PlayerHPAfter: 0}}, payloadsOf[event.BattleEnd](res.Events))
	assert.Equal(t, event.RunEnd{Result: "lose", FinalNodeIndex: 1}, res.Events[len(res.Events)-1].Payload)

	snap := r.Snapshot()
	assert.Equal(t, run.ResultLose, snap.Result)
	assert.Equal(t, 0.0, snap.Player.HP)
}

func TestStep_TickCeilingForcesDefeat(t *testing.T) {
	c := customCatalog(t,
		"  max_hp: 140\n  attack: 17\n  speed: 0",
		"max_hp: 84\nattack: 11\nspeed: 0",
	)
	core, logs := observer.New(zapcore.WarnLevel)
	r, err := run.New(run.Config{Seed: 1, MaxNodes: 1, Catalog: c, Logger: zap.New(core)})
	require.NoError(t, err)

	res := r.Step(3000, nil)
	require.True(t, res.Ended)
	assert.Equal(t, []event.Kind{
		event.KindRunStart,
		event.KindNodeStart,
		event.KindBattleStart,
		event.KindBattleEnd,
		event.KindRunEnd,
	}, kindsOf(res.Events))
	assert.Equal(t, event.BattleEnd{Result: "lose", PlayerHPAfter: 0}, res.Events[3].Payload)
	assert.Equal(t, uint32(20000), res.Events[3].Tick)
	assert.Equal(t, run.ResultLose, r.Result())
	assert.Equal(t, 1, logs.FilterMessage("battle hit tick ceiling; forcing defeat").Len())
}

func TestStep_OverchargeReactsWithinCallAndBoundsEventCount(t *testing.T) {
	r := newRun(t, 5, 6, "overcharge")
	sawReaction := false
	for i := 0; i < 20000 && !r.Ended(); i++ {
		res := r.Step(0.1, run.Skill(2))
		require.Less(t, len(res.Events), 300)
		for j, e := range res.Events {
			tt, ok := e.Payload.(event.TraitTriggered)
			if !ok || tt.TraitName != "Overcharge" {
				continue
			}
			require.Greater(t, len(res.Events), j+1)
			dmg, ok := res.Events[j+1].Payload.(event.DamageDealt)
			require.True(t, ok, "pure damage must follow the trigger")
			assert.Equal(t, event.Amount(3), dmg.Amount)
			sawReaction = true
		}
	}
	assert.True(t, r.Ended())
	assert.True(t, sawReaction)
}

func TestSnapshot_ShowsActiveEnemyStatuses(t *testing.T) {
	r := newRun(t, 3, 6)
	for i := 0; i < 20000 && !r.Ended(); i++ {
		res := r.Step(0.1, run.Skill(0))
		applied := false
		for _, sa := range payloadsOf[event.StatusApplied](res.Events) {
			applied = applied || sa.Dst == "enemy"
		}
		if !applied || len(payloadsOf[event.BattleEnd](res.Events)) > 0 {
			continue
		}
		snap := r.Snapshot()
		require.NotEmpty(t, snap.Enemy.Statuses)
		assert.Equal(t, "Burn", snap.Enemy.Statuses[0].Type)
		assert.GreaterOrEqual(t, snap.Enemy.Statuses[0].Stacks, uint32(1))
		assert.Greater(t, snap.Enemy.Statuses[0].Duration, 0.0)
		return
	}
	t.Fatal("no Burn was applied during the run")
}

func TestReset_RestoresInitialState(t *testing.T) {
	r := newRun(t, 4, 3, "ruthless")
	first := r.Step(5, run.Basic())
	for i := 0; i < 50; i++ {
		r.Step(0.5, run.Skill(1))
	}

	r.Reset()
	snap := r.Snapshot()
	assert.Equal(t, run.StateRunning, snap.RunState)
	assert.Equal(t, uint32(0), snap.NodeIndex)
	assert.Equal(t, 0.0, snap.Elapsed)
	assert.Equal(t, 140.0, snap.Player.HP)
	assert.Equal(t, []string{"ruthless"}, r.TraitIDs())

	again := r.Step(5, run.Basic())
	assert.Equal(t, first.Lines(), again.Lines())
}

func kindsOf(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}
