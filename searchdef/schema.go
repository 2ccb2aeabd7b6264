package searchdef

import (
	"fmt"
	"regexp"

	"github.com/schatt/vespa/searchdef/tensor"
)

// Schema is a named document type. Its rank profiles live in a Registry,
// keyed by the schema name.
type Schema struct {
	name     string
	document *Document
}

var validFieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validProfileNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// NewSchema creates a schema with an empty document of the same name
func NewSchema(name string) *Schema {
	return &Schema{name: name, document: NewDocument(name)}
}

func (s *Schema) Name() string { return s.name }

func (s *Schema) Document() *Document { return s.document }

// SetDocument replaces the schema's document type
func (s *Schema) SetDocument(d *Document) { s.document = d }

// Validate checks field names, indexing and declared tensor types
func (s *Schema) Validate() error {
	if !validFieldNameRe.MatchString(s.name) {
		return SchemaError(s.name, fmt.Sprintf("invalid schema name: %s (must match %s)", s.name, validFieldNameRe))
	}
	if s.document == nil {
		return SchemaError(s.name, "schema has no document")
	}

	for _, f := range s.document.Fields() {
		if !validFieldNameRe.MatchString(f.Name) {
			return SchemaError(s.name, fmt.Sprintf("invalid field name: %s (must match %s)", f.Name, validFieldNameRe))
		}

		if f.TensorType != "" {
			if !f.DataType.IsTensor() {
				return &Error{Kind: ErrSchema, Schema: s.name, Field: f.Name, Message: fmt.Sprintf("tensor type declared on field of type %s", f.DataType)}
			}
			if !f.IsAttribute() {
				return &Error{Kind: ErrSchema, Schema: s.name, Field: f.Name, Message: "tensor type declared on field without attribute indexing"}
			}
			if _, err := tensor.Parse(f.TensorType); err != nil {
				return InSchema(TypeFormatError(f.Name, err), s.name)
			}
		}

		switch f.EffectiveRankType() {
		case RankTypeDefault, RankTypeIdentity, RankTypeAbout, RankTypeTags, RankTypeEmpty:
			// valid
		default:
			return &Error{Kind: ErrSchema, Schema: s.name, Field: f.Name, Message: fmt.Sprintf("unknown rank type '%s'", f.RankType)}
		}
	}

	return nil
}

// AttributeTensorFields returns attribute fields with an explicit tensor
// type, in declaration order.
func (s *Schema) AttributeTensorFields() []*Field {
	var out []*Field
	for _, f := range s.document.Fields() {
		if f.IsAttribute() && f.TensorType != "" {
			out = append(out, f)
		}
	}
	return out
}
