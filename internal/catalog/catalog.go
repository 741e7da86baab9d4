// Package catalog holds the documents the tool knows how to deploy: the
// built-in mashup and thing builders, plus definitions loaded from YAML.
package catalog

import (
	"fmt"
	"sort"

	"mashupctl/internal/mashup"
)

// Kind distinguishes mashup definitions from thing definitions.
type Kind string

const (
	KindMashup Kind = "mashup"
	KindThing  Kind = "thing"
)

// SourceBuiltin marks definitions compiled into the binary.
const SourceBuiltin = "builtin"

// Definition describes one deployable document.
type Definition struct {
	Name        string
	Kind        Kind
	Description string

	// Mashups only.
	DeleteFirst bool     // remove a previous version before the upsert
	Project     string   // empty means mashup.DefaultProject
	Extended    bool     // send the full entity metadata block
	Summary     []string // printed after a successful push

	// Things only.
	Template string

	// Source is SourceBuiltin or the file the definition was loaded from.
	Source string

	content func() (mashup.Content, error)
}

// Content builds the mashup content. Building is deterministic: every call
// returns an equal, independent value.
func (d *Definition) Content() (mashup.Content, error) {
	if d.Kind != KindMashup || d.content == nil {
		return mashup.Content{}, fmt.Errorf("%s is not a mashup definition", d.Name)
	}
	return d.content()
}

// Entity builds the upsert body for a mashup definition.
func (d *Definition) Entity() (*mashup.Entity, error) {
	c, err := d.Content()
	if err != nil {
		return nil, err
	}
	e, err := mashup.NewEntity(d.Name, d.Description, c)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", d.Name, err)
	}
	if d.Project != "" {
		e.ProjectName = d.Project
	}
	if d.Extended {
		e.Metadata = mashup.EmptyMetadata()
	}
	return e, nil
}

// ThingRequest builds the CreateThing body for a thing definition.
func (d *Definition) ThingRequest() (mashup.ThingRequest, error) {
	if d.Kind != KindThing {
		return mashup.ThingRequest{}, fmt.Errorf("%s is not a thing definition", d.Name)
	}
	return mashup.ThingRequest{
		Name:              d.Name,
		Description:       d.Description,
		ThingTemplateName: d.Template,
	}, nil
}

// Registry holds definitions keyed by name.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Add inserts def, replacing any definition with the same name. It reports
// whether a definition was replaced.
func (r *Registry) Add(def Definition) bool {
	_, replaced := r.defs[def.Name]
	cp := def
	r.defs[def.Name] = &cp
	return replaced
}

// Lookup returns the definition named name, or nil.
func (r *Registry) Lookup(name string) *Definition {
	return r.defs[name]
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Names returns all names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns all definitions of kind (all kinds when kind is empty),
// sorted by name.
func (r *Registry) All(kind Kind) []*Definition {
	var out []*Definition
	for _, n := range r.Names() {
		d := r.defs[n]
		if kind == "" || d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
