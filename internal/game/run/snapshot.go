package run

import "github.com/cory-johannsen/overstack/internal/game/ruleset"

// Run lifecycle states reported by Snapshot.
const (
	StateRunning = "running"
	StateEnded   = "ended"
)

// StatusView is one active status in a snapshot.
type StatusView struct {
	Type     string  `json:"type"`
	Stacks   uint32  `json:"stacks"`
	Duration float64 `json:"duration"`
}

// UnitView is one side's display state.
type UnitView struct {
	HP       float64      `json:"hp"`
	MaxHP    float64      `json:"max_hp"`
	Gauge    float64      `json:"gauge"`
	Statuses []StatusView `json:"statuses"`
}

// Snapshot is a read-only projection of a run for display and policies.
type Snapshot struct {
	RunState    string   `json:"run_state"`
	Result      string   `json:"result"`
	NodeIndex   uint32   `json:"node_index"`
	BattleIndex uint32   `json:"battle_index"`
	Elapsed     float64  `json:"elapsed"`
	Player      UnitView `json:"player"`
	Enemy       UnitView `json:"enemy"`
}

// Running reports whether the snapshot is of a run that has not ended.
func (s Snapshot) Running() bool { return s.RunState == StateRunning }

// Snapshot returns the run's current display state. During a battle the
// player and enemy views show the first unit of each team; between battles
// the player view shows the carried-over HP and the enemy view is zero.
func (r *Run) Snapshot() Snapshot {
	s := Snapshot{
		RunState:    StateRunning,
		Result:      r.result,
		NodeIndex:   r.nodeIndex,
		BattleIndex: r.battleIndex,
		Elapsed:     r.elapsed,
	}
	if r.ended {
		s.RunState = StateEnded
	}

	if r.battle == nil {
		s.Player = UnitView{HP: r.playerHP, MaxHP: r.player.MaxHP, Statuses: []StatusView{}}
		s.Enemy = UnitView{Statuses: []StatusView{}}
		return s
	}
	s.Player = r.unitView(ruleset.TeamPlayer)
	s.Enemy = r.unitView(ruleset.TeamEnemy)
	return s
}

func (r *Run) unitView(team ruleset.Team) UnitView {
	idx, ok := r.battle.FirstOf(team)
	if !ok {
		idx = 0
	}
	u := r.battle.Unit(idx)
	v := UnitView{HP: u.HP, MaxHP: u.MaxHP, Gauge: u.Gauge, Statuses: []StatusView{}}
	for _, a := range r.battle.Runtime(idx).Statuses.All() {
		if a.Duration <= 0 {
			continue
		}
		v.Statuses = append(v.Statuses, StatusView{Type: a.Type.String(), Stacks: a.Stacks, Duration: a.Duration})
	}
	return v
}

// invalidSnapshot is reported for handles the registry does not know.
func invalidSnapshot() Snapshot {
	return Snapshot{
		RunState: StateEnded,
		Result:   "invalid_handle",
		Player:   UnitView{Statuses: []StatusView{}},
		Enemy:    UnitView{Statuses: []StatusView{}},
	}
}

