package run_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/overstack/internal/game/event"
	"github.com/cory-johannsen/overstack/internal/game/npc"
	"github.com/cory-johannsen/overstack/internal/game/run"
)

func embeddedCatalog(t testing.TB) *npc.Catalog {
	t.Helper()
	c, err := npc.LoadEmbedded()
	require.NoError(t, err)
	return c
}

// customCatalog builds a one-node catalog with the given player and enemy stats.
func customCatalog(t testing.TB, player, enemy string) *npc.Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"plan.yaml": {Data: []byte("player:\n" + player + "\nnodes:\n  - type: battle\n    enemies: [dummy]\n")},
		"enemies/dummy.yaml": {Data: []byte("id: dummy\nname: Training Dummy\n" + enemy + "\n")},
	}
	c, err := npc.LoadFS(fsys)
	require.NoError(t, err)
	return c
}

func newRun(t testing.TB, seed uint64, maxNodes int, traits ...string) *run.Run {
	t.Helper()
	r, err := run.New(run.Config{Seed: seed, MaxNodes: maxNodes, Traits: traits, Catalog: embeddedCatalog(t)})
	require.NoError(t, err)
	return r
}

func payloadsOf[P event.Payload](events []event.Event) []P {
	var out []P
	for _, e := range events {
		if p, ok := e.Payload.(P); ok {
			out = append(out, p)
		}
	}
	return out
}
