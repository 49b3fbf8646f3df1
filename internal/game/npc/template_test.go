package npc_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/overstack/internal/game/npc"
)

func TestTemplate_LoadsValidYAML(t *testing.T) {
	data := []byte(`
id: rogue_drone
name: Rogue Drone
description: A drone.
max_hp: 84
attack: 11
speed: 28
`)
	tmpl, err := npc.LoadTemplateFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "Rogue Drone", tmpl.Name)
	assert.Equal(t, 84.0, tmpl.MaxHP)
	assert.Equal(t, 11, tmpl.Attack)
	assert.Equal(t, 28.0, tmpl.Speed)
}

func TestTemplate_RejectsUnknownFields(t *testing.T) {
	data := []byte(`
id: rogue_drone
name: Rogue Drone
max_hp: 84
armor: 3
`)
	_, err := npc.LoadTemplateFromBytes(data)
	assert.Error(t, err)
}

func TestTemplate_Validate(t *testing.T) {
	cases := []struct {
		name string
		tmpl npc.Template
	}{
		{"empty id", npc.Template{Name: "x", MaxHP: 1}},
		{"empty name", npc.Template{ID: "x", MaxHP: 1}},
		{"zero hp", npc.Template{ID: "x", Name: "x"}},
		{"negative attack", npc.Template{ID: "x", Name: "x", MaxHP: 1, Attack: -1}},
		{"negative speed", npc.Template{ID: "x", Name: "x", MaxHP: 1, Speed: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.tmpl.Validate())
		})
	}
}

func TestProperty_Template_PositiveStatsParse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hp := rapid.IntRange(1, 10000).Draw(rt, "hp")
		atk := rapid.IntRange(0, 500).Draw(rt, "atk")
		spd := rapid.IntRange(0, 200).Draw(rt, "spd")
		data := []byte(fmt.Sprintf("id: e\nname: E\nmax_hp: %d\nattack: %d\nspeed: %d\n", hp, atk, spd))
		tmpl, err := npc.LoadTemplateFromBytes(data)
		require.NoError(rt, err)
		assert.Equal(rt, float64(hp), tmpl.MaxHP)
		assert.Equal(rt, atk, tmpl.Attack)
	})
}
