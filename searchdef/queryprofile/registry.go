package queryprofile

import (
	"fmt"

	"github.com/schatt/vespa/searchdef"
)

// Field is a named, typed entry of a query profile type
type Field struct {
	Name string
	Type FieldType
}

// Type is a query profile type: an id and its fields in declaration order
type Type struct {
	id     string
	fields []Field
	byName map[string]int
}

func NewType(id string) *Type {
	return &Type{id: id, byName: make(map[string]int)}
}

func (t *Type) ID() string { return t.id }

// AddField parses typeString and declares the field. A malformed type is a
// type format error naming the field.
func (t *Type) AddField(name, typeString string) error {
	ft, err := ParseFieldType(typeString)
	if err != nil {
		return searchdef.TypeFormatError(name, err)
	}
	return t.AddFieldType(name, ft)
}

func (t *Type) AddFieldType(name string, ft FieldType) error {
	if name == "" {
		return searchdef.New(searchdef.ErrSchema, fmt.Sprintf("query profile type '%s': field without name", t.id))
	}
	if _, exists := t.byName[name]; exists {
		return &searchdef.Error{Kind: searchdef.ErrSchema, Field: name,
			Message: fmt.Sprintf("query profile type '%s': duplicate field", t.id)}
	}
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, Field{Name: name, Type: ft})
	return nil
}

// Field looks up a declared field
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Fields returns the declared fields in order
func (t *Type) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Registry holds query profile types in registration order
type Registry struct {
	types map[string]*Type
	order []*Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

func (r *Registry) Register(t *Type) error {
	if t.id == "" {
		return searchdef.New(searchdef.ErrSchema, "query profile type without id")
	}
	if _, exists := r.types[t.id]; exists {
		return searchdef.New(searchdef.ErrSchema, fmt.Sprintf("query profile type '%s' registered twice", t.id))
	}
	r.types[t.id] = t
	r.order = append(r.order, t)
	return nil
}

func (r *Registry) Lookup(id string) (*Type, bool) {
	t, ok := r.types[id]
	return t, ok
}

// All returns the registered types in registration order
func (r *Registry) All() []*Type {
	out := make([]*Type, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Validate checks that every query-profile:<id> reference names a registered
// type.
func (r *Registry) Validate() error {
	for _, t := range r.order {
		for _, f := range t.fields {
			if f.Type.Kind != KindQueryProfile || f.Type.TypeID == "" {
				continue
			}
			if _, ok := r.types[f.Type.TypeID]; !ok {
				return unknownTypeError(t.id, f)
			}
		}
	}
	return nil
}

// FlattenedFields returns the fields of every registered type in
// registration order, with query-profile:<id> fields replaced by the
// referenced type's fields under "<field>.". A type already being expanded
// on the current path is not expanded again.
func (r *Registry) FlattenedFields() ([]Field, error) {
	var out []Field
	for _, t := range r.order {
		fields, err := r.flatten(t, "", map[string]bool{})
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

func (r *Registry) flatten(t *Type, prefix string, expanding map[string]bool) ([]Field, error) {
	expanding[t.id] = true
	defer delete(expanding, t.id)

	var out []Field
	for _, f := range t.fields {
		name := prefix + f.Name
		if f.Type.Kind != KindQueryProfile || f.Type.TypeID == "" {
			out = append(out, Field{Name: name, Type: f.Type})
			continue
		}
		nested, ok := r.types[f.Type.TypeID]
		if !ok {
			return nil, unknownTypeError(t.id, f)
		}
		if expanding[nested.id] {
			continue
		}
		fields, err := r.flatten(nested, name+".", expanding)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

func unknownTypeError(owner string, f Field) *searchdef.Error {
	return &searchdef.Error{
		Kind:    searchdef.ErrSchema,
		Field:   f.Name,
		Message: fmt.Sprintf("query profile type '%s' references unknown type '%s'", owner, f.Type.TypeID),
	}
}
