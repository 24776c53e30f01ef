package resource

import (
	"fmt"
	"strings"
)

// Registry is the startup-time table of resource definitions keyed by type.
// It is read-only once built.
type Registry struct {
	byType     map[string]*Definition
	bySingular map[string]*Definition
	order      []string
}

// NewRegistry validates and indexes defs. Relationship targets and eager-load
// hints must refer to registered types and declared relationships.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{
		byType:     make(map[string]*Definition, len(defs)),
		bySingular: make(map[string]*Definition, len(defs)),
	}
	for _, def := range defs {
		if def == nil || def.Type == "" || def.Singular == "" {
			return nil, fmt.Errorf("resource definition requires a type and a singular name")
		}
		if _, dup := r.byType[def.Type]; dup {
			return nil, fmt.Errorf("resource type %q registered twice", def.Type)
		}
		if _, dup := r.bySingular[def.Singular]; dup {
			return nil, fmt.Errorf("resource singular %q registered twice", def.Singular)
		}
		r.byType[def.Type] = def
		r.bySingular[def.Singular] = def
		r.order = append(r.order, def.Type)
	}

	for _, def := range defs {
		for _, rel := range def.Relationships {
			if _, ok := r.byType[rel.Target]; !ok {
				return nil, fmt.Errorf("%s.%s targets unregistered type %q", def.Type, rel.Name, rel.Target)
			}
		}
		for _, name := range def.EagerLoadable {
			if _, ok := def.Relationship(name); !ok {
				return nil, fmt.Errorf("%s declares eager load %q without a relationship", def.Type, name)
			}
		}
		for action, cfg := range def.Actions {
			if err := r.ValidateIncludes(def, cfg.DefaultIncludes); err != nil {
				return nil, fmt.Errorf("%s %s default includes: %w", def.Type, action, err)
			}
		}
	}
	return r, nil
}

// MustRegistry is NewRegistry for static definitions; it panics on error.
func MustRegistry(defs ...*Definition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition registered for a record type.
func (r *Registry) Lookup(recordType string) (*Definition, bool) {
	def, ok := r.byType[recordType]
	return def, ok
}

// LookupSingular returns the definition whose JSON:API type is singular.
func (r *Registry) LookupSingular(singular string) (*Definition, bool) {
	def, ok := r.bySingular[singular]
	return def, ok
}

// All returns the definitions in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byType[t])
	}
	return out
}

// ValidateIncludes checks that every dotted include path follows declared
// relationships, returning an error wrapping domain.ErrUnsupportedInclude.
func (r *Registry) ValidateIncludes(def *Definition, includes []string) error {
	for _, path := range includes {
		if _, err := r.resolvePath(def, path); err != nil {
			return err
		}
	}
	return nil
}

// IncludedTypes returns the record types reached by the include paths,
// de-duplicated, in first-seen order.
func (r *Registry) IncludedTypes(def *Definition, includes []string) ([]string, error) {
	var out []string
	for _, path := range includes {
		steps, err := r.resolvePath(def, path)
		if err != nil {
			return nil, err
		}
		for _, step := range steps {
			if !contains(out, step.Target) {
				out = append(out, step.Target)
			}
		}
	}
	return out, nil
}

// resolvePath walks a dotted include path and returns the relationship taken
// at each step.
func (r *Registry) resolvePath(def *Definition, path string) ([]Relationship, error) {
	segments := strings.Split(path, ".")
	steps := make([]Relationship, 0, len(segments))
	current := def
	for _, seg := range segments {
		rel, ok := current.Relationship(seg)
		if !ok {
			return nil, unsupportedInclude(def, path)
		}
		steps = append(steps, rel)
		current = r.byType[rel.Target]
		if current == nil {
			return nil, unsupportedInclude(def, path)
		}
	}
	return steps, nil
}

// Reference is a relationship of Source that points at another type.
type Reference struct {
	Source       *Definition
	Relationship Relationship
}

// Referencing lists every registered relationship whose target is def.
func (r *Registry) Referencing(def *Definition) []Reference {
	var out []Reference
	for _, t := range r.order {
		src := r.byType[t]
		for _, rel := range src.Relationships {
			if rel.Target == def.Type {
				out = append(out, Reference{Source: src, Relationship: rel})
			}
		}
	}
	return out
}
