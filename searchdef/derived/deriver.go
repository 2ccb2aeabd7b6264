package derived

import (
	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/queryprofile"
)

// Deriver computes the attribute and query feature views of a schema once
// and shares them across every profile it derives.
type Deriver struct {
	schema  *searchdef.Schema
	attrs   *AttributeFields
	queries *QueryFeatureTypes
}

// NewDeriver builds the profile-independent views for schema. queryTypes
// may be nil.
func NewDeriver(schema *searchdef.Schema, queryTypes *queryprofile.Registry) (*Deriver, error) {
	attrs, err := NewAttributeFields(schema)
	if err != nil {
		return nil, err
	}
	queries, err := NewQueryFeatureTypes(queryTypes)
	if err != nil {
		return nil, searchdef.InSchema(err, schema.Name())
	}
	return &Deriver{schema: schema, attrs: attrs, queries: queries}, nil
}

func (d *Deriver) AttributeFields() *AttributeFields { return d.attrs }

func (d *Deriver) QueryFeatureTypes() *QueryFeatureTypes { return d.queries }

// Derive compiles one profile of the deriver's schema
func (d *Deriver) Derive(profile *searchdef.RankProfile) (*RawRankProfile, error) {
	if profile.Schema() != d.schema {
		return nil, &searchdef.Error{Kind: searchdef.ErrSchema, Schema: d.schema.Name(), Profile: profile.Name(),
			Message: "profile belongs to schema " + profile.Schema().Name()}
	}
	return NewRawRankProfile(profile, d.attrs, d.queries)
}

// DeriveAll compiles every profile of the schema in registration order.
// Nothing is returned if any profile fails.
func (d *Deriver) DeriveAll(registry *searchdef.Registry) ([]*RawRankProfile, error) {
	profiles := registry.ForSchema(d.schema.Name())
	out := make([]*RawRankProfile, 0, len(profiles))
	for _, p := range profiles {
		raw, err := d.Derive(p)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}
