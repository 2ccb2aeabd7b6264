package derived

import (
	"regexp"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/queryprofile"
	"github.com/schatt/vespa/searchdef/tensor"
)

// AttributeField is an attribute with an explicit tensor type
type AttributeField struct {
	Name       string
	TensorType tensor.Type
}

// AttributeFields is the attribute view of one schema. Only attributes
// with a declared tensor type are included.
type AttributeFields struct {
	fields []AttributeField
	props  Properties
}

// NewAttributeFields derives the attribute view of schema. A malformed
// declared tensor type fails with a type format error naming the field.
func NewAttributeFields(schema *searchdef.Schema) (*AttributeFields, error) {
	a := &AttributeFields{}
	for _, f := range schema.AttributeTensorFields() {
		t, err := tensor.Parse(f.TensorType)
		if err != nil {
			return nil, searchdef.InSchema(searchdef.TypeFormatError(f.Name, err), schema.Name())
		}
		a.fields = append(a.fields, AttributeField{Name: f.Name, TensorType: t})
		a.props.add(PrefixAttributeType+f.Name, t.String())
	}
	return a, nil
}

// Fields returns the attribute fields in declaration order
func (a *AttributeFields) Fields() []AttributeField {
	out := make([]AttributeField, len(a.fields))
	copy(out, a.fields)
	return out
}

// Properties returns the vespa.type.attribute.* properties
func (a *AttributeFields) Properties() Properties { return a.props }

var queryFeatureRe = regexp.MustCompile(`^ranking\.features\.query\(([A-Za-z0-9_]+)\)$`)

// QueryFeature is a tensor-typed query feature
type QueryFeature struct {
	Name       string
	TensorType tensor.Type
}

// QueryFeatureTypes is the query feature view of a type registry: every
// tensor-typed field named ranking.features.query(<name>). A feature
// declared more than once keeps its first declaration.
type QueryFeatureTypes struct {
	features []QueryFeature
	props    Properties
}

// NewQueryFeatureTypes scans reg in registration order. A nil registry
// yields no features.
func NewQueryFeatureTypes(reg *queryprofile.Registry) (*QueryFeatureTypes, error) {
	q := &QueryFeatureTypes{}
	if reg == nil {
		return q, nil
	}
	fields, err := reg.FlattenedFields()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, f := range fields {
		m := queryFeatureRe.FindStringSubmatch(f.Name)
		if m == nil || !f.Type.IsTensor() {
			continue
		}
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		q.features = append(q.features, QueryFeature{Name: name, TensorType: f.Type.Tensor})
		q.props.add(PrefixQueryType+name, f.Type.Tensor.String())
	}
	return q, nil
}

func (q *QueryFeatureTypes) Features() []QueryFeature {
	out := make([]QueryFeature, len(q.features))
	copy(out, q.features)
	return out
}

// Properties returns the vespa.type.query.* properties
func (q *QueryFeatureTypes) Properties() Properties { return q.props }
