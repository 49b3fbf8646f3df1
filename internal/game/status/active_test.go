package status_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/overstack/internal/game/status"
)

func TestLedger_Merge_NewEntryFloorsDurationAndStacks(t *testing.T) {
	l := status.NewLedger()
	a := l.Merge(status.Burn, 0, 0.01, 2)
	assert.Equal(t, uint32(1), a.Stacks)
	assert.Equal(t, status.MinDuration, a.Duration)
	assert.Equal(t, 2.0, a.Power)
	assert.Equal(t, 0.0, a.TickMeter)
}

func TestLedger_Merge_ExistingTakesMaxima(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Shock, 2, 4, 3)
	a := l.Merge(status.Shock, 1, 1, 1)
	assert.Equal(t, uint32(3), a.Stacks)
	assert.Equal(t, 4.0, a.Duration)
	assert.Equal(t, 3.0, a.Power)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_Merge_StacksSaturate(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Bleed, math.MaxUint32, 1, 1)
	a := l.Merge(status.Bleed, 5, 1, 1)
	assert.Equal(t, uint32(math.MaxUint32), a.Stacks)
}

func TestProperty_Ledger_MergeNeverDecreases(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := status.NewLedger()
		typ := status.Type(rapid.IntRange(0, int(status.Haste)).Draw(rt, "type"))
		stacks := rapid.Uint32Range(0, 10).Draw(rt, "stacks")
		dur := rapid.Float64Range(0, 10).Draw(rt, "dur")
		power := rapid.Float64Range(0, 10).Draw(rt, "power")

		first := *l.Merge(typ, stacks, dur, power)
		second := l.Merge(typ, stacks, dur, power)

		assert.GreaterOrEqual(rt, second.Stacks, first.Stacks)
		assert.GreaterOrEqual(rt, second.Duration, first.Duration)
		assert.GreaterOrEqual(rt, second.Power, first.Power)
	})
}

func TestLedger_Advance_FiresOneTickPerUnitTime(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Burn, 2, 3, 1.5)

	var fired []status.PeriodicTick
	for i := 0; i < 10; i++ {
		ticks, _ := l.Advance(0.1)
		fired = append(fired, ticks...)
	}
	require.Len(t, fired, 1)
	assert.Equal(t, status.Burn, fired[0].Type)
	assert.InDelta(t, 3.0, fired[0].Amount, 1e-9)
}

func TestLedger_Advance_LargeDeltaFiresMultipleTicks(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Shock, 1, 10, 1)
	ticks, expired := l.Advance(3)
	assert.Len(t, ticks, 3)
	assert.Empty(t, expired)
}

func TestLedger_Advance_NonPeriodicNeverTicks(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Freeze, 1, 10, 5)
	ticks, _ := l.Advance(5)
	assert.Empty(t, ticks)
}

func TestLedger_Advance_ReportsExpiredWithoutRemoving(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Stun, 1, 0.5, 1)
	l.Merge(status.Burn, 1, 5, 1)
	_, expired := l.Advance(1)
	assert.Equal(t, []status.Type{status.Stun}, expired)
	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Has(status.Stun))
	assert.Equal(t, 1, l.CountActive())

	l.RemoveExpired(status.Stun)
	assert.Equal(t, 1, l.Len())
	assert.Nil(t, l.Get(status.Stun))
}

func TestLedger_RemoveExpired_KeepsRefreshedEntry(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Burn, 1, 0.5, 1)
	_, expired := l.Advance(1)
	require.Equal(t, []status.Type{status.Burn}, expired)
	l.Merge(status.Burn, 1, 2, 1)
	l.RemoveExpired(status.Burn)
	assert.True(t, l.Has(status.Burn))
}

func TestLedger_All_PreservesInsertionOrder(t *testing.T) {
	l := status.NewLedger()
	l.Merge(status.Shock, 1, 1, 1)
	l.Merge(status.Burn, 1, 1, 1)
	l.Merge(status.Freeze, 1, 1, 1)
	var got []status.Type
	for _, a := range l.All() {
		got = append(got, a.Type)
	}
	assert.Equal(t, []status.Type{status.Shock, status.Burn, status.Freeze}, got)
}
