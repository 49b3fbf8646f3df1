package ruleset

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/overstack/internal/game/status"
)

// TriggerType names a combat event that trait rules react to.
type TriggerType int

const (
	OnBattleStart TriggerType = iota
	OnTurnStart
	OnActionUsed
	OnDamageDealt
	OnStatusApplied
	OnStatusTick
	OnBattleEnd
)

var triggerNames = [...]string{
	OnBattleStart:   "OnBattleStart",
	OnTurnStart:     "OnTurnStart",
	OnActionUsed:    "OnActionUsed",
	OnDamageDealt:   "OnDamageDealt",
	OnStatusApplied: "OnStatusApplied",
	OnStatusTick:    "OnStatusTick",
	OnBattleEnd:     "OnBattleEnd",
}

func (t TriggerType) String() string {
	if t < 0 || int(t) >= len(triggerNames) {
		return fmt.Sprintf("TriggerType(%d)", int(t))
	}
	return triggerNames[t]
}

// Rule fires Effects when an event of type Trigger satisfies When.
type Rule struct {
	Trigger TriggerType
	When    Condition
	Effects []Effect
}

// Trait is a named, ordered list of rules.
type Trait struct {
	ID    string
	Name  string
	Rules []Rule
	// Selectable traits may be offered to the player; others are content-only.
	Selectable bool
}

var traitCatalog = []*Trait{
	{
		ID: "cinder_scholar", Name: "Cinder Scholar", Selectable: true,
		Rules: []Rule{{
			Trigger: OnStatusApplied,
			When:    AllOf(SrcIsPlayer{}, DstIsEnemy{}, AppliedStatusIs{Status: status.Burn}),
			Effects: []Effect{ModifyStatusPower{Status: status.Burn, Multiplier: 1.25}},
		}},
	},
	{
		ID: "frozen_momentum", Name: "Frozen Momentum", Selectable: true,
		Rules: []Rule{{
			Trigger: OnStatusApplied,
			When:    AllOf(SrcIsPlayer{}, AppliedStatusIs{Status: status.Freeze}),
			Effects: []Effect{AddStatusStacks{Target: TargetDst, Status: status.Break, Stacks: 1}},
		}},
	},
	{
		ID: "overcharge", Name: "Overcharge", Selectable: true,
		Rules: []Rule{{
			Trigger: OnStatusApplied,
			When:    AllOf(SrcIsPlayer{}, AppliedStatusIs{Status: status.Shock}),
			Effects: []Effect{DealPureDamage{Target: TargetDst, Amount: 3}},
		}},
	},
	{
		// No skill inflicts Bleed yet, so this trait is not offered.
		ID: "hemorrhage", Name: "Hemorrhage",
		Rules: []Rule{{
			Trigger: OnDamageDealt,
			When:    AllOf(SrcIsPlayer{}, DstIsEnemy{}, TargetHasStatus{Status: status.Bleed}),
			Effects: []Effect{DealDamage{Multiplier: 0.15}},
		}},
	},
	{
		ID: "ruthless", Name: "Ruthless", Selectable: true,
		Rules: []Rule{{
			Trigger: OnDamageDealt,
			When:    AllOf(SrcIsPlayer{}, DstIsEnemy{}, TargetStatusCountAtLeast{Count: 2}),
			Effects: []Effect{DealDamage{Multiplier: 0.20}},
		}},
	},
	{
		ID: "shatterpoint", Name: "Shatterpoint", Selectable: true,
		Rules: []Rule{{
			Trigger: OnStatusApplied,
			When:    AllOf(SrcIsPlayer{}, AppliedStatusIs{Status: status.Break}),
			Effects: []Effect{ConditionalApplyStatus{
				When:   TargetHasStatus{Status: status.Freeze},
				Status: status.Stun, Chance: 0.5, Duration: 1.5, Stacks: 1, Power: 1,
			}},
		}},
	},
}

// TraitByID returns the trait with the given ID.
//
// Postcondition: Returns nil and false if id is unknown.
func TraitByID(id string) (*Trait, bool) {
	for _, t := range traitCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Traits returns the full trait catalog in declaration order.
func Traits() []*Trait {
	out := make([]*Trait, len(traitCatalog))
	copy(out, traitCatalog)
	return out
}

// AllTraitIDs returns every trait ID in declaration order.
func AllTraitIDs() []string {
	ids := make([]string, 0, len(traitCatalog))
	for _, t := range traitCatalog {
		ids = append(ids, t.ID)
	}
	return ids
}

// SelectableTraitIDs returns the IDs of traits that may be offered to the player.
func SelectableTraitIDs() []string {
	var ids []string
	for _, t := range traitCatalog {
		if t.Selectable {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// ValidateTraitIDs checks that every id names a catalog trait.
//
// Postcondition: Returns nil iff all ids are known; otherwise the error lists
// every unknown id.
func ValidateTraitIDs(ids []string) error {
	var unknown []string
	for _, id := range ids {
		if _, ok := TraitByID(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown traits: %s", strings.Join(unknown, ", "))
	}
	return nil
}
