// Package autoplay drives runs to completion by answering every input
// request with a Policy.
package autoplay

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/overstack/internal/game/ruleset"
	"github.com/cory-johannsen/overstack/internal/game/run"
)

// ErrUnknownPolicy is returned by New for an unrecognized policy name.
var ErrUnknownPolicy = errors.New("autoplay: unknown policy")

// Built-in policy names.
const (
	PolicyBasic    = "basic"
	PolicyRotation = "rotation"
	PolicyScript   = "script"
)

// ChooseFunc is the global Lua function a script policy must define. It is
// called as choose_action(state, turn) and returns kind, slot.
const ChooseFunc = "choose_action"

// Policy picks the player's action when a run waits for input.
type Policy interface {
	Name() string
	// Choose returns the action for the player's turn-th decision (0-based).
	// A nil action means the policy has no preference.
	Choose(ctx context.Context, snap run.Snapshot, turn int) (*run.Action, error)
}

// Basic always uses the basic attack.
type Basic struct{}

func (Basic) Name() string { return PolicyBasic }

func (Basic) Choose(context.Context, run.Snapshot, int) (*run.Action, error) {
	return run.Basic(), nil
}

// Rotation cycles through the player's skill slots in order.
type Rotation struct{}

func (Rotation) Name() string { return PolicyRotation }

func (Rotation) Choose(_ context.Context, _ run.Snapshot, turn int) (*run.Action, error) {
	return run.Skill(turn % ruleset.SkillSlotCount), nil
}

// ScriptCaller is the interface required by Script to call into Lua.
type ScriptCaller interface {
	// Call invokes fn in the named script, returning nret values, or nil
	// values when the function is missing or fails at runtime.
	Call(name, fn string, nret int, args ...any) ([]lua.LValue, error)
}

// Script delegates decisions to a Lua script's choose_action function.
//
// Invariant: caller is non-nil.
type Script struct {
	caller ScriptCaller
	script string
}

// NewScript constructs a Script policy for the loaded script named script.
//
// Precondition: caller must not be nil.
func NewScript(caller ScriptCaller, script string) *Script {
	if caller == nil {
		panic("autoplay.NewScript: precondition violated: caller must not be nil")
	}
	return &Script{caller: caller, script: script}
}

func (s *Script) Name() string { return PolicyScript + ":" + s.script }

// Choose calls choose_action(state, turn). A missing function or a Lua
// runtime error yields a nil action; an unrecognized kind is an error
// wrapping run.ErrInvalidAction.
func (s *Script) Choose(ctx context.Context, snap run.Snapshot, turn int) (*run.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ret, err := s.caller.Call(s.script, ChooseFunc, 2, SnapshotTable(snap), turn)
	if err != nil {
		return nil, fmt.Errorf("autoplay: calling %s: %w", s.script, err)
	}
	if len(ret) < 2 || ret[0] == lua.LNil {
		return nil, nil
	}
	slot := 0
	if n, ok := ret[1].(lua.LNumber); ok {
		slot = int(n)
	}
	return run.ParseAction(lua.LVAsString(ret[0]), slot)
}

// SnapshotTable converts snap into the nested map handed to scripts.
func SnapshotTable(snap run.Snapshot) map[string]any {
	return map[string]any{
		"run_state":    snap.RunState,
		"result":       snap.Result,
		"node_index":   snap.NodeIndex,
		"battle_index": snap.BattleIndex,
		"elapsed":      snap.Elapsed,
		"player":       unitTable(snap.Player),
		"enemy":        unitTable(snap.Enemy),
	}
}

func unitTable(u run.UnitView) map[string]any {
	statuses := make([]any, len(u.Statuses))
	for i, s := range u.Statuses {
		statuses[i] = map[string]any{
			"type":     s.Type,
			"stacks":   s.Stacks,
			"duration": s.Duration,
		}
	}
	return map[string]any{
		"hp":       u.HP,
		"max_hp":   u.MaxHP,
		"gauge":    u.Gauge,
		"statuses": statuses,
	}
}

// New returns the policy called name. "script" requires caller and script.
//
// Postcondition: Returns an error wrapping ErrUnknownPolicy for any other name.
func New(name string, caller ScriptCaller, script string) (Policy, error) {
	switch name {
	case PolicyBasic:
		return Basic{}, nil
	case PolicyRotation:
		return Rotation{}, nil
	case PolicyScript:
		if caller == nil || script == "" {
			return nil, fmt.Errorf("autoplay: script policy needs a loaded script")
		}
		return NewScript(caller, script), nil
	}
	return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownPolicy, name, Names())
}

// Names lists the selectable policy names.
func Names() []string {
	return []string{PolicyBasic, PolicyRotation, PolicyScript}
}
