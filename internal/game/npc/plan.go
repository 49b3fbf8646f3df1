package npc

import (
	"fmt"
	"strings"
)

// NodeType classifies a node of the run.
type NodeType string

const (
	NodeBattle NodeType = "battle"
	NodeBoss   NodeType = "boss"
)

// Label returns the display name used in traces.
func (n NodeType) Label() string {
	switch n {
	case NodeBoss:
		return "Boss"
	default:
		return "Battle"
	}
}

// PlayerStats are the player's starting attributes for a run.
type PlayerStats struct {
	MaxHP  float64 `yaml:"max_hp"`
	Attack int     `yaml:"attack"`
	Speed  float64 `yaml:"speed"`
}

// Node is one encounter slot. Enemies lists template IDs in roster order.
type Node struct {
	Type    NodeType `yaml:"type"`
	Enemies []string `yaml:"enemies"`
}

// Plan is the fixed linear sequence of nodes a run walks through.
type Plan struct {
	Player PlayerStats `yaml:"player"`
	Nodes  []Node      `yaml:"nodes"`
}

// Validate checks the plan's shape. Template references are checked by the
// Catalog.
//
// Postcondition: Returns nil iff the player has positive max HP, there is at
// least one node, and every node has a known type and at least one enemy.
func (p *Plan) Validate() error {
	var errs []string
	if p.Player.MaxHP <= 0 {
		errs = append(errs, "player.max_hp must be > 0")
	}
	if p.Player.Attack < 0 {
		errs = append(errs, "player.attack must be >= 0")
	}
	if p.Player.Speed < 0 {
		errs = append(errs, "player.speed must be >= 0")
	}
	if len(p.Nodes) == 0 {
		errs = append(errs, "plan must contain at least one node")
	}
	for i, n := range p.Nodes {
		if n.Type != NodeBattle && n.Type != NodeBoss {
			errs = append(errs, fmt.Sprintf("nodes[%d].type must be battle or boss, got %q", i, n.Type))
		}
		if len(n.Enemies) == 0 {
			errs = append(errs, fmt.Sprintf("nodes[%d] must list at least one enemy", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid plan: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadPlanFromBytes parses and validates a plan. Unknown keys are rejected.
func LoadPlanFromBytes(data []byte) (*Plan, error) {
	var p Plan
	if err := decodeStrict(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
