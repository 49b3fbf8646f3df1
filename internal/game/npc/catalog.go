package npc

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed content
var embedded embed.FS

const (
	planFile   = "plan.yaml"
	enemiesDir = "enemies"
)

// Catalog holds the loaded enemy templates and node plan.
type Catalog struct {
	templates map[string]*Template
	plan      *Plan
}

// LoadEmbedded loads the built-in content.
//
// Postcondition: Returns a validated Catalog or an error.
func LoadEmbedded() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "content")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return LoadFS(sub)
}

// LoadDirectory loads content from dir, which must contain plan.yaml and an
// enemies/ directory of *.yaml templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a validated Catalog or an error on the first parse
// or validation failure.
func LoadDirectory(dir string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS loads content from fsys using the LoadDirectory layout.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, enemiesDir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	c := &Catalog{templates: make(map[string]*Template, len(names))}
	for _, name := range names {
		p := path.Join(enemiesDir, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		if _, dup := c.templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate template id %q", p, tmpl.ID)
		}
		c.templates[tmpl.ID] = tmpl
	}

	data, err := fs.ReadFile(fsys, planFile)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", planFile, err)
	}
	plan, err := LoadPlanFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", planFile, err)
	}
	for i, n := range plan.Nodes {
		for _, id := range n.Enemies {
			if _, ok := c.templates[id]; !ok {
				return nil, fmt.Errorf("nodes[%d]: %w %q", i, ErrUnknownTemplate, id)
			}
		}
	}
	c.plan = plan
	return c, nil
}

// Template returns the template with the given ID.
//
// Postcondition: Returns an error wrapping ErrUnknownTemplate if id is not loaded.
func (c *Catalog) Template(id string) (*Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// Plan returns the node plan.
func (c *Catalog) Plan() *Plan {
	return c.plan
}

// NodeCount returns the number of planned nodes.
func (c *Catalog) NodeCount() int {
	return len(c.plan.Nodes)
}

// Node returns the node at zero-based index i.
//
// Precondition: 0 <= i < NodeCount().
func (c *Catalog) Node(i int) Node {
	return c.plan.Nodes[i]
}
