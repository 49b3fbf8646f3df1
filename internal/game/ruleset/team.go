// Package ruleset holds the static combat rules: teams, the condition
// predicate tree, the closed effect catalog, and the skill and trait
// catalogs built from them.
package ruleset

import "fmt"

// Team is the side a unit fights on.
type Team int

const (
	TeamPlayer Team = iota
	TeamEnemy
)

// String returns the actor label used in traces.
func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "player"
	case TeamEnemy:
		return "enemy"
	default:
		return fmt.Sprintf("Team(%d)", int(t))
	}
}

// Opponent returns the opposing team.
func (t Team) Opponent() Team {
	if t == TeamPlayer {
		return TeamEnemy
	}
	return TeamPlayer
}
