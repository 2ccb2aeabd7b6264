package searchdef

import (
	"fmt"
)

type profileKey struct {
	schema string
	name   string
}

// Registry owns the rank profiles of one or more schemas. Profiles are
// namespaced by schema name and enumerated in registration order.
//
// A Registry has a single writer: the compilation of its schemas. Schemas
// compiled concurrently must each get their own Registry.
type Registry struct {
	profiles map[profileKey]*RankProfile
	order    []*RankProfile
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[profileKey]*RankProfile)}
}

// NewRegistryWithBuiltins returns a registry already holding the default and
// unranked profiles of schema.
func NewRegistryWithBuiltins(schema *Schema) *Registry {
	r := NewRegistry()
	// a fresh registry cannot already hold these names
	_ = r.AddBuiltins(schema)
	return r
}

// AddBuiltins registers the default and unranked profiles for schema
func (r *Registry) AddBuiltins(schema *Schema) error {
	if err := r.Register(newDefaultProfile(schema, r)); err != nil {
		return err
	}
	return r.Register(newUnrankedProfile(schema, r))
}

// Register inserts p into its schema's namespace
func (r *Registry) Register(p *RankProfile) error {
	if p.schema == nil {
		return SchemaError("", fmt.Sprintf("rank profile '%s' has no schema", p.name))
	}
	if !validProfileNameRe.MatchString(p.name) {
		return &Error{Kind: ErrSchema, Schema: p.schema.Name(), Profile: p.name,
			Message: fmt.Sprintf("invalid rank profile name (must match %s)", validProfileNameRe)}
	}
	key := profileKey{schema: p.schema.Name(), name: p.name}
	if _, exists := r.profiles[key]; exists {
		return DuplicateProfileError(key.schema, key.name)
	}
	p.registry = r
	r.profiles[key] = p
	r.order = append(r.order, p)
	return nil
}

func (r *Registry) mark() int { return len(r.order) }

// rollback unregisters every profile registered after mark
func (r *Registry) rollback(mark int) {
	for _, p := range r.order[mark:] {
		delete(r.profiles, profileKey{schema: p.schema.Name(), name: p.name})
	}
	r.order = r.order[:mark]
}

// Lookup returns the named profile of schema
func (r *Registry) Lookup(schema, name string) (*RankProfile, error) {
	p, ok := r.profiles[profileKey{schema: schema, name: name}]
	if !ok {
		return nil, UnknownProfileError(schema, name)
	}
	return p, nil
}

// All returns every registered profile in registration order
func (r *Registry) All() []*RankProfile {
	out := make([]*RankProfile, len(r.order))
	copy(out, r.order)
	return out
}

// ForSchema returns the profiles of one schema in registration order
func (r *Registry) ForSchema(schema string) []*RankProfile {
	var out []*RankProfile
	for _, p := range r.order {
		if p.schema.Name() == schema {
			out = append(out, p)
		}
	}
	return out
}

// Validate resolves every profile of schema so unknown parents and cycles
// surface before any property is derived.
func (r *Registry) Validate(schema string) error {
	for _, p := range r.ForSchema(schema) {
		if _, err := p.Chain(); err != nil {
			return err
		}
	}
	return nil
}
