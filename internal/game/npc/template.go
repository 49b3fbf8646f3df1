// Package npc provides enemy templates and the run's node plan, loaded from
// YAML. Built-in content is embedded; a directory with the same layout
// overrides it.
package npc

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when a plan or caller names a template that
// was not loaded.
var ErrUnknownTemplate = errors.New("unknown enemy template")

// Template defines a reusable enemy loaded from YAML.
type Template struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	MaxHP       float64 `yaml:"max_hp"`
	Attack      int     `yaml:"attack"`
	Speed       float64 `yaml:"speed"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP > 0, and
// Attack and Speed are >= 0; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.MaxHP <= 0 {
		return fmt.Errorf("npc template %q: max_hp must be > 0", t.ID)
	}
	if t.Attack < 0 {
		return fmt.Errorf("npc template %q: attack must be >= 0", t.ID)
	}
	if t.Speed < 0 {
		return fmt.Errorf("npc template %q: speed must be >= 0", t.ID)
	}
	return nil
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
// Unknown keys are rejected.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := decodeStrict(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
