package searchdef

import (
	"fmt"
	"strings"
)

// DataType is the declared type of a document field
type DataType string

const (
	DataTypeString DataType = "string"
	DataTypeInt    DataType = "int"
	DataTypeLong   DataType = "long"
	DataTypeFloat  DataType = "float"
	DataTypeDouble DataType = "double"
	DataTypeBool   DataType = "bool"
	DataTypeByte   DataType = "byte"
	DataTypeTensor DataType = "tensor"
)

func isPrimitive(t DataType) bool {
	switch t {
	case DataTypeString, DataTypeInt, DataTypeLong, DataTypeFloat, DataTypeDouble, DataTypeBool, DataTypeByte:
		return true
	}
	return false
}

// ParseDataType accepts the primitive types, tensor, and array<T> or
// weightedset<T> of a primitive T.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	dt := DataType(s)
	if isPrimitive(dt) || dt == DataTypeTensor {
		return dt, nil
	}
	for _, coll := range []string{"array", "weightedset"} {
		if strings.HasPrefix(s, coll+"<") && strings.HasSuffix(s, ">") {
			inner := DataType(strings.TrimSpace(s[len(coll)+1 : len(s)-1]))
			if !isPrimitive(inner) {
				return "", fmt.Errorf("unsupported %s element type %q", coll, inner)
			}
			return DataType(coll + "<" + string(inner) + ">"), nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

func (t DataType) IsTensor() bool { return t == DataTypeTensor }

// Indexing is the set of indexing directives declared for a field
type Indexing uint8

const (
	IndexingIndex Indexing = 1 << iota
	IndexingAttribute
	IndexingSummary
)

func (i Indexing) Has(flag Indexing) bool { return i&flag != 0 }

func (i Indexing) String() string {
	var parts []string
	if i.Has(IndexingIndex) {
		parts = append(parts, "index")
	}
	if i.Has(IndexingAttribute) {
		parts = append(parts, "attribute")
	}
	if i.Has(IndexingSummary) {
		parts = append(parts, "summary")
	}
	return strings.Join(parts, " | ")
}

// ParseIndexing parses a single indexing directive name
func ParseIndexing(s string) (Indexing, error) {
	switch strings.TrimSpace(s) {
	case "index":
		return IndexingIndex, nil
	case "attribute":
		return IndexingAttribute, nil
	case "summary":
		return IndexingSummary, nil
	}
	return 0, fmt.Errorf("unknown indexing directive %q", s)
}

// Field is one declared document field
type Field struct {
	Name     string
	DataType DataType
	Indexing Indexing

	// TensorType is the declared attribute tensor type, verbatim. Empty when
	// the field has none.
	TensorType string

	// RankType feeds the default rank profile. Empty means RankTypeDefault.
	RankType RankType
}

func (f *Field) IsAttribute() bool { return f.Indexing.Has(IndexingAttribute) }

func (f *Field) IsIndexed() bool { return f.Indexing.Has(IndexingIndex) }

// EffectiveRankType returns the declared rank type or RankTypeDefault
func (f *Field) EffectiveRankType() RankType {
	if f.RankType == "" {
		return RankTypeDefault
	}
	return f.RankType
}

// Document is a document type: an ordered set of uniquely named fields
type Document struct {
	Name   string
	fields []*Field
	byName map[string]*Field
}

func NewDocument(name string) *Document {
	return &Document{Name: name, byName: make(map[string]*Field)}
}

// AddField declares a new field. Field names are unique within a document.
func (d *Document) AddField(name string, dt DataType) (*Field, error) {
	if _, exists := d.byName[name]; exists {
		return nil, SchemaError("", fmt.Sprintf("document '%s': duplicate field '%s'", d.Name, name))
	}
	f := &Field{Name: name, DataType: dt}
	d.fields = append(d.fields, f)
	d.byName[name] = f
	return f, nil
}

// Field looks up a field by name
func (d *Document) Field(name string) (*Field, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// Fields returns fields in declaration order
func (d *Document) Fields() []*Field {
	out := make([]*Field, len(d.fields))
	copy(out, d.fields)
	return out
}
