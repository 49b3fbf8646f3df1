// Package run drives a sequence of battles for one player: the gauge-timeline
// step loop with its suspend-for-input contract, battle finalization, node
// progression, read-only snapshots, and a handle-keyed registry of runs.
package run

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/combat"
	"github.com/cory-johannsen/overstack/internal/game/dice"
	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/npc"
	"github.com/cory-johannsen/overstack/internal/game/ruleset"
)

const (
	// SubStep is the largest slice of time a single scheduler sub-step covers.
	SubStep = 0.1
	// VictoryHeal is the fraction of max HP recovered after a won battle.
	VictoryHeal = 0.2
	// PlayerName is the roster name of the player unit.
	PlayerName = "Player"
)

// Result tags reported in RunEnd events and snapshots.
const (
	ResultNone = "none"
	ResultWin  = "win"
	ResultLose = "lose"
)

// ErrNoCatalog is returned by New when Config.Catalog is nil.
var ErrNoCatalog = errors.New("run: catalog is required")

// Config describes a run to create.
type Config struct {
	Seed uint64
	// MaxNodes is clamped to [1, catalog node count].
	MaxNodes int
	// Traits are trait IDs in activation order.
	Traits  []string
	Catalog *npc.Catalog
	// Logger may be nil.
	Logger *zap.Logger
}

type encounter struct {
	node    npc.Node
	enemies []*npc.Template
}

// Run is one active run. It is not safe for concurrent use; Registry
// serialises access to the runs it owns.
type Run struct {
	cfg        Config
	maxNodes   uint32
	traits     []*ruleset.Trait
	encounters []encounter
	logger     *zap.Logger

	source *dice.LCGSource
	roller *dice.Roller
	rec    *event.Recorder

	player      npc.PlayerStats
	playerHP    float64
	nodeIndex   uint32
	battleIndex uint32
	battle      *combat.Battle
	waiting     bool
	ended       bool
	result      string
	elapsed     float64
}

// New creates a run that has not yet started; the first Step emits RunStart
// and opens the first battle.
//
// Precondition: cfg.Catalog must be non-nil.
// Postcondition: Returns an error if any trait ID is unknown or a planned
// enemy template is missing.
func New(cfg Config) (*Run, error) {
	if cfg.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if err := ruleset.ValidateTraitIDs(cfg.Traits); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxNodes := min(max(cfg.MaxNodes, 1), cfg.Catalog.NodeCount())
	encounters := make([]encounter, 0, maxNodes)
	for i := 0; i < maxNodes; i++ {
		node := cfg.Catalog.Node(i)
		enc := encounter{node: node}
		for _, id := range node.Enemies {
			tmpl, err := cfg.Catalog.Template(id)
			if err != nil {
				return nil, fmt.Errorf("creating run: node %d: %w", i+1, err)
			}
			enc.enemies = append(enc.enemies, tmpl)
		}
		encounters = append(encounters, enc)
	}

	traits := make([]*ruleset.Trait, 0, len(cfg.Traits))
	for _, id := range cfg.Traits {
		tr, _ := ruleset.TraitByID(id)
		traits = append(traits, tr)
	}

	cfg.Traits = append([]string(nil), cfg.Traits...)
	r := &Run{
		cfg:        cfg,
		maxNodes:   uint32(maxNodes),
		traits:     traits,
		encounters: encounters,
		logger:     logger.With(zap.Uint64("seed", cfg.Seed)),
	}
	r.init()
	return r, nil
}

// init sets every piece of mutable state to its starting value.
func (r *Run) init() {
	r.source = dice.NewLCGSource(r.cfg.Seed)
	r.roller = dice.NewLoggedRoller(r.source, r.logger)
	r.rec = event.NewRecorder()
	r.player = r.cfg.Catalog.Plan().Player
	r.playerHP = combat.RoundHP(r.player.MaxHP)
	r.nodeIndex = 0
	r.battleIndex = 0
	r.battle = nil
	r.waiting = false
	r.ended = false
	r.result = ResultNone
	r.elapsed = 0
}

// Reset returns the run to its freshly created state, keeping its seed, node
// count, and traits.
func (r *Run) Reset() {
	r.init()
}

// Seed returns the run's seed.
func (r *Run) Seed() uint64 { return r.cfg.Seed }

// MaxNodes returns the clamped number of nodes the run walks through.
func (r *Run) MaxNodes() uint32 { return r.maxNodes }

// TraitIDs returns a copy of the active trait IDs in activation order.
func (r *Run) TraitIDs() []string { return append([]string(nil), r.cfg.Traits...) }

// Ended reports whether the run has finished.
func (r *Run) Ended() bool { return r.ended }

// Result returns ResultNone, ResultWin, or ResultLose.
func (r *Run) Result() string { return r.result }

// WaitingForInput reports whether the last Step suspended for a player action.
func (r *Run) WaitingForInput() bool { return r.waiting }

// NodeIndex returns the one-based index of the current node (0 before start).
func (r *Run) NodeIndex() uint32 { return r.nodeIndex }

// Elapsed returns the simulated time consumed so far.
func (r *Run) Elapsed() float64 { return r.elapsed }
