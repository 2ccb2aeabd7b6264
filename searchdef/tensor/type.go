// Package tensor parses and renders tensor type declarations such as
// tensor(x[10]) or tensor<float>(x[3],y{}).
package tensor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValueType is the cell type of a tensor.
type ValueType int

const (
	ValueDouble ValueType = iota
	ValueFloat
	ValueBFloat16
	ValueInt8
)

func (v ValueType) String() string {
	switch v {
	case ValueDouble:
		return "double"
	case ValueFloat:
		return "float"
	case ValueBFloat16:
		return "bfloat16"
	case ValueInt8:
		return "int8"
	default:
		return "unknown"
	}
}

func parseValueType(s string) (ValueType, bool) {
	switch s {
	case "double":
		return ValueDouble, true
	case "float":
		return ValueFloat, true
	case "bfloat16":
		return ValueBFloat16, true
	case "int8":
		return ValueInt8, true
	}
	return 0, false
}

// DimensionKind distinguishes dense (indexed) from sparse (mapped) dimensions.
type DimensionKind int

const (
	DimensionIndexed DimensionKind = iota
	DimensionMapped
)

// Dimension is one named axis of a tensor type. Size is only meaningful for
// bound indexed dimensions.
type Dimension struct {
	Name  string
	Kind  DimensionKind
	Bound bool
	Size  int
}

func (d Dimension) String() string {
	switch {
	case d.Kind == DimensionMapped:
		return d.Name + "{}"
	case d.Bound:
		return d.Name + "[" + strconv.Itoa(d.Size) + "]"
	default:
		return d.Name + "[]"
	}
}

// Type is a validated tensor type. Dimensions are kept sorted by name so
// that String is canonical.
type Type struct {
	valueType  ValueType
	dimensions []Dimension
}

// NewType builds a type from dimensions in any order.
func NewType(vt ValueType, dims ...Dimension) (Type, error) {
	sorted := make([]Dimension, len(dims))
	copy(sorted, dims)
	sortDimensions(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return Type{}, fmt.Errorf("duplicate dimension %q", sorted[i].Name)
		}
	}
	for _, d := range sorted {
		if d.Kind == DimensionIndexed && d.Bound && d.Size <= 0 {
			return Type{}, fmt.Errorf("dimension %q: size must be positive", d.Name)
		}
	}
	return Type{valueType: vt, dimensions: sorted}, nil
}

func (t Type) ValueType() ValueType { return t.valueType }

func (t Type) Rank() int { return len(t.dimensions) }

// Dimensions returns a copy of the dimensions in canonical order.
func (t Type) Dimensions() []Dimension {
	out := make([]Dimension, len(t.dimensions))
	copy(out, t.dimensions)
	return out
}

// Dimension looks up a dimension by name.
func (t Type) Dimension(name string) (Dimension, bool) {
	for _, d := range t.dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// String renders the canonical form. The double cell type is implicit.
func (t Type) String() string {
	var sb strings.Builder
	sb.WriteString("tensor")
	if t.valueType != ValueDouble {
		sb.WriteString("<")
		sb.WriteString(t.valueType.String())
		sb.WriteString(">")
	}
	sb.WriteString("(")
	for i, d := range t.dimensions {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(d.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// LooksLikeTensor reports whether s is meant to be a tensor type
// declaration, well-formed or not.
func LooksLikeTensor(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "tensor")
}

// Canonical parses s and returns its canonical rendering.
func Canonical(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func sortDimensions(dims []Dimension) {
	slices.SortStableFunc(dims, func(a, b Dimension) int { return strings.Compare(a.Name, b.Name) })
}
