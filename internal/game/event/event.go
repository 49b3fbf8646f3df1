// Package event defines the combat trace: an ordered, append-only sequence of
// typed records, each tagged with the simulation tick it occurred on.
package event

import (
	"strconv"
)

// Kind is the tag identifying an event's payload type.
type Kind string

const (
	KindRunStart           Kind = "RunStart"
	KindNodeStart          Kind = "NodeStart"
	KindBattleStart        Kind = "BattleStart"
	KindTurnReady          Kind = "TurnReady"
	KindActionUsed         Kind = "ActionUsed"
	KindDamageDealt        Kind = "DamageDealt"
	KindStatusApplied      Kind = "StatusApplied"
	KindStatusTick         Kind = "StatusTick"
	KindStatusExpired      Kind = "StatusExpired"
	KindBattleEnd          Kind = "BattleEnd"
	KindRunEnd             Kind = "RunEnd"
	KindTraitTriggered     Kind = "TraitTriggered"
	KindTraitEffectApplied Kind = "TraitEffectApplied"
)

// Payload is the kind-specific body of an Event.
type Payload interface {
	Kind() Kind
}

// Event is one trace record.
type Event struct {
	Tick    uint32
	Payload Payload
}

// Kind returns the payload's kind.
func (e Event) Kind() Kind {
	return e.Payload.Kind()
}

// Amount is a float rendered with exactly two decimals in traces.
type Amount float64

// MarshalJSON renders a as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(a), 'f', 2, 64), nil
}

type RunStart struct {
	Seed uint64 `json:"seed"`
}

type NodeStart struct {
	NodeIndex uint32 `json:"node_index"`
	NodeType  string `json:"node_type"`
}

type BattleStart struct {
	BattleIndex uint32 `json:"battle_index"`
	EnemyName   string `json:"enemy_name"`
}

type TurnReady struct {
	Actor string `json:"actor"`
}

type ActionUsed struct {
	Actor      string `json:"actor"`
	ActionName string `json:"action_name"`
}

type DamageDealt struct {
	Src        string `json:"src"`
	Dst        string `json:"dst"`
	Amount     Amount `json:"amount"`
	DstHPAfter Amount `json:"dst_hp_after"`
}

// StatusApplied reports the requested stacks and whole-second duration, not
// the merged ledger values.
type StatusApplied struct {
	Src      string `json:"src"`
	Dst      string `json:"dst"`
	Status   string `json:"status"`
	Stacks   uint32 `json:"stacks"`
	Duration uint32 `json:"duration"`
}

type StatusTick struct {
	Dst        string `json:"dst"`
	Status     string `json:"status"`
	Amount     Amount `json:"amount"`
	DstHPAfter Amount `json:"dst_hp_after"`
}

type StatusExpired struct {
	Dst    string `json:"dst"`
	Status string `json:"status"`
}

type BattleEnd struct {
	Result        string `json:"result"`
	PlayerHPAfter Amount `json:"player_hp_after"`
}

type RunEnd struct {
	Result         string `json:"result"`
	FinalNodeIndex uint32 `json:"final_node_index"`
}

type TraitTriggered struct {
	TraitName   string `json:"trait_name"`
	TriggerType string `json:"trigger_type"`
}

type TraitEffectApplied struct {
	TraitName     string `json:"trait_name"`
	EffectSummary string `json:"effect_summary"`
}

func (RunStart) Kind() Kind           { return KindRunStart }
func (NodeStart) Kind() Kind          { return KindNodeStart }
func (BattleStart) Kind() Kind        { return KindBattleStart }
func (TurnReady) Kind() Kind          { return KindTurnReady }
func (ActionUsed) Kind() Kind         { return KindActionUsed }
func (DamageDealt) Kind() Kind        { return KindDamageDealt }
func (StatusApplied) Kind() Kind      { return KindStatusApplied }
func (StatusTick) Kind() Kind         { return KindStatusTick }
func (StatusExpired) Kind() Kind      { return KindStatusExpired }
func (BattleEnd) Kind() Kind          { return KindBattleEnd }
func (RunEnd) Kind() Kind             { return KindRunEnd }
func (TraitTriggered) Kind() Kind     { return KindTraitTriggered }
func (TraitEffectApplied) Kind() Kind { return KindTraitEffectApplied }

// newPayload returns a zero payload for k, used when decoding.
func newPayload(k Kind) (Payload, bool) {
	switch k {
	case KindRunStart:
		return &RunStart{}, true
	case KindNodeStart:
		return &NodeStart{}, true
	case KindBattleStart:
		return &BattleStart{}, true
	case KindTurnReady:
		return &TurnReady{}, true
	case KindActionUsed:
		return &ActionUsed{}, true
	case KindDamageDealt:
		return &DamageDealt{}, true
	case KindStatusApplied:
		return &StatusApplied{}, true
	case KindStatusTick:
		return &StatusTick{}, true
	case KindStatusExpired:
		return &StatusExpired{}, true
	case KindBattleEnd:
		return &BattleEnd{}, true
	case KindRunEnd:
		return &RunEnd{}, true
	case KindTraitTriggered:
		return &TraitTriggered{}, true
	case KindTraitEffectApplied:
		return &TraitEffectApplied{}, true
	}
	return nil, false
}
