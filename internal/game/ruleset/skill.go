package ruleset

import "github.com/cory-johannsen/overstack/internal/game/status"

// BasicAttackID is the skill every enemy uses and the player's fallback action.
const BasicAttackID = "basic_attack"

// Skill is an immutable attack definition.
type Skill struct {
	ID             string
	Name           string
	BaseMultiplier float64
	FlatBonus      float64
	Effects        []Effect
	Tags           []string
}

var skillCatalog = []*Skill{
	{
		ID: BasicAttackID, Name: "Basic Attack", BaseMultiplier: 1,
		Effects: []Effect{DealDamage{Multiplier: 1}},
		Tags:    []string{"basic", "physical"},
	},
	{
		ID: "ember_lash", Name: "Ember Lash", BaseMultiplier: 1,
		Effects: []Effect{
			DealDamage{Multiplier: 1},
			ApplyStatus{Status: status.Burn, Chance: 0.35, Duration: 4, Stacks: 1, Power: 1},
		},
		Tags: []string{"skill", "fire"},
	},
	{
		ID: "frost_bite", Name: "Frost Bite", BaseMultiplier: 1,
		Effects: []Effect{
			DealDamage{Multiplier: 0.9},
			ApplyStatus{Status: status.Freeze, Chance: 0.30, Duration: 3.5, Stacks: 1, Power: 1},
		},
		Tags: []string{"skill", "ice"},
	},
	{
		ID: "arc_jolt", Name: "Arc Jolt", BaseMultiplier: 1,
		Effects: []Effect{
			DealDamage{Multiplier: 0.8},
			ApplyStatus{Status: status.Shock, Chance: 0.40, Duration: 4, Stacks: 1, Power: 1},
		},
		Tags: []string{"skill", "lightning"},
	},
	{
		ID: "ruin_strike", Name: "Ruin Strike", BaseMultiplier: 1,
		Effects: []Effect{
			DealDamage{Multiplier: 1.1},
			ApplyStatus{Status: status.Break, Chance: 0.35, Duration: 6, Stacks: 1, Power: 1},
		},
		Tags: []string{"skill", "debuff"},
	},
}

// playerSlots maps skill slots 0..3 to skill IDs.
var playerSlots = [...]string{"ember_lash", "frost_bite", "arc_jolt", "ruin_strike"}

// SkillSlotCount is the number of player skill slots.
const SkillSlotCount = len(playerSlots)

// SkillByID returns the skill with the given ID.
//
// Postcondition: Returns nil and false if id is unknown.
func SkillByID(id string) (*Skill, bool) {
	for _, s := range skillCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// MustSkill returns the skill with the given ID and panics if it is unknown.
func MustSkill(id string) *Skill {
	s, ok := SkillByID(id)
	if !ok {
		panic("ruleset.MustSkill: precondition violated: unknown skill " + id)
	}
	return s
}

// Skills returns the full skill catalog in declaration order.
func Skills() []*Skill {
	out := make([]*Skill, len(skillCatalog))
	copy(out, skillCatalog)
	return out
}

// ClampSlot clamps slot into [0, SkillSlotCount-1].
func ClampSlot(slot int) int {
	return min(max(slot, 0), SkillSlotCount-1)
}

// SlotSkill returns the player skill in slot, after clamping.
//
// Postcondition: Never returns nil.
func SlotSkill(slot int) *Skill {
	return MustSkill(playerSlots[ClampSlot(slot)])
}
