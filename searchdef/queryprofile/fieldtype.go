// Package queryprofile holds query profile types: named, ordered sets of
// typed fields describing the values a query may carry, including the query
// features consumed by ranking expressions.
package queryprofile

import (
	"fmt"
	"strings"

	"github.com/schatt/vespa/searchdef/tensor"
)

// Kind is the primitive category of a field type
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindQueryProfile
	KindTensor
)

const queryProfilePrefix = "query-profile"

var kindNames = map[string]Kind{
	"string":  KindString,
	"integer": KindInteger,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
	"boolean": KindBoolean,
}

// FieldType is the declared type of a query profile field. TypeID is set for
// query-profile:<id> references, Tensor for tensor types.
type FieldType struct {
	Kind   Kind
	TypeID string
	Tensor tensor.Type
}

// ParseFieldType parses a type string such as "integer",
// "query-profile:ranking" or "tensor(x[10])".
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(s)
	if k, ok := kindNames[s]; ok {
		return FieldType{Kind: k}, nil
	}
	if tensor.LooksLikeTensor(s) {
		t, err := tensor.Parse(s)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: KindTensor, Tensor: t}, nil
	}
	if s == queryProfilePrefix {
		return FieldType{Kind: KindQueryProfile}, nil
	}
	if id, ok := strings.CutPrefix(s, queryProfilePrefix+":"); ok {
		if id == "" {
			return FieldType{}, fmt.Errorf("query-profile reference without type id")
		}
		return FieldType{Kind: KindQueryProfile, TypeID: id}, nil
	}
	return FieldType{}, fmt.Errorf("unknown field type %q", s)
}

func (f FieldType) IsTensor() bool { return f.Kind == KindTensor }

func (f FieldType) String() string {
	switch f.Kind {
	case KindTensor:
		return f.Tensor.String()
	case KindQueryProfile:
		if f.TypeID == "" {
			return queryProfilePrefix
		}
		return queryProfilePrefix + ":" + f.TypeID
	}
	for name, k := range kindNames {
		if k == f.Kind {
			return name
		}
	}
	return "unknown"
}
