package searchdef

import (
	"fmt"
	"strconv"
)

// RankType selects the term scoring behaviour of a field
type RankType string

const (
	RankTypeDefault  RankType = "default"
	RankTypeIdentity RankType = "identity"
	RankTypeAbout    RankType = "about"
	RankTypeTags     RankType = "tags"
	RankTypeEmpty    RankType = "empty"
)

// ParseRankType parses a rank type name
func ParseRankType(s string) (RankType, error) {
	switch rt := RankType(s); rt {
	case RankTypeDefault, RankTypeIdentity, RankTypeAbout, RankTypeTags, RankTypeEmpty:
		return rt, nil
	}
	return "", fmt.Errorf("unknown rank type '%s'", s)
}

// RankSettingType is the kind of a per-field rank setting
type RankSettingType string

const (
	SettingRankType        RankSettingType = "rank-type"
	SettingLiteralBoost    RankSettingType = "literal-boost"
	SettingWeight          RankSettingType = "weight"
	SettingPreferBitvector RankSettingType = "prefer-bitvector"
)

// RankSetting is one (field, kind, value) triple. Value is a RankType for
// SettingRankType, an int for literal-boost and weight, and a bool for
// prefer-bitvector.
type RankSetting struct {
	FieldName string
	Type      RankSettingType
	Value     any
}

type settingKey struct {
	field string
	kind  RankSettingType
}

func (s RankSetting) key() settingKey { return settingKey{s.FieldName, s.Type} }

// NewRankSetting checks that value has the Go type the setting kind requires
func NewRankSetting(field string, kind RankSettingType, value any) (RankSetting, error) {
	ok := false
	switch kind {
	case SettingRankType:
		_, ok = value.(RankType)
	case SettingLiteralBoost, SettingWeight:
		_, ok = value.(int)
	case SettingPreferBitvector:
		_, ok = value.(bool)
	default:
		return RankSetting{}, fmt.Errorf("unknown rank setting kind '%s'", kind)
	}
	if !ok {
		return RankSetting{}, fmt.Errorf("rank setting %s for field '%s': unexpected value %v (%T)", kind, field, value, value)
	}
	return RankSetting{FieldName: field, Type: kind, Value: value}, nil
}

// ParseRankSetting builds a setting from its textual kind and value
func ParseRankSetting(field, kind, value string) (RankSetting, error) {
	k := RankSettingType(kind)
	switch k {
	case SettingRankType:
		rt, err := ParseRankType(value)
		if err != nil {
			return RankSetting{}, err
		}
		return NewRankSetting(field, k, rt)
	case SettingLiteralBoost, SettingWeight:
		n, err := strconv.Atoi(value)
		if err != nil {
			return RankSetting{}, fmt.Errorf("rank setting %s for field '%s': %q is not an integer", kind, field, value)
		}
		return NewRankSetting(field, k, n)
	case SettingPreferBitvector:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return RankSetting{}, fmt.Errorf("rank setting %s for field '%s': %q is not a boolean", kind, field, value)
		}
		return NewRankSetting(field, k, b)
	}
	return RankSetting{}, fmt.Errorf("unknown rank setting kind '%s'", kind)
}

// ValueString renders the setting value as emitted in derived properties
func (s RankSetting) ValueString() string {
	switch v := s.Value.(type) {
	case RankType:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// RankProperty is a free-form name/value pair passed through to the ranking runtime
type RankProperty struct {
	Name  string
	Value string
}
