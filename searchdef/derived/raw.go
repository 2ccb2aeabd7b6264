package derived

import (
	"fmt"
	"strconv"

	"github.com/schatt/vespa/searchdef"
)

// RawRankProfile is the derived, read-only property list of one profile
type RawRankProfile struct {
	Schema     string
	Name       string
	Properties Properties
}

// NewRawRankProfile derives the property list of profile. Properties are
// emitted in groups: tuning settings, phase and feature settings, per-field
// rank settings, attribute types, then query feature types.
func NewRawRankProfile(profile *searchdef.RankProfile, attrs *AttributeFields, queries *QueryFeatureTypes) (*RawRankProfile, error) {
	r, err := profile.Resolve()
	if err != nil {
		return nil, err
	}

	raw := &RawRankProfile{Schema: profile.Schema().Name(), Name: profile.Name()}
	d := &rawDeriver{props: &raw.Properties}

	d.tuning(r)
	d.phases(r)
	if err := d.settings(r.Settings); err != nil {
		return nil, searchdef.InSchema(err, raw.Schema)
	}
	if attrs != nil {
		raw.Properties = append(raw.Properties, attrs.Properties()...)
	}
	if queries != nil {
		raw.Properties = append(raw.Properties, queries.Properties()...)
	}
	return raw, nil
}

type rawDeriver struct {
	props *Properties
}

func (d *rawDeriver) tuning(r *searchdef.Resolved) {
	if r.TermwiseLimit != nil {
		d.props.add(KeyTermwiseLimit, formatFloat(*r.TermwiseLimit))
	}
	d.addInt(KeyNumThreadsPerSearch, r.NumThreadsPerSearch)
	d.addInt(KeyMinHitsPerThread, r.MinHitsPerThread)
	d.addInt(KeyNumSearchPartitions, r.NumSearchPartitions)
}

func (d *rawDeriver) phases(r *searchdef.Resolved) {
	if r.FirstPhase != nil {
		d.props.add(KeyFirstPhase, *r.FirstPhase)
	}
	if r.SecondPhase != nil {
		d.props.add(KeySecondPhase, *r.SecondPhase)
	}
	d.addInt(KeyRerankCount, r.RerankCount)
	d.addInt(KeyKeepRankCount, r.KeepRankCount)
	if r.IgnoreDefaultRankFeatures != nil {
		d.props.add(KeyIgnoreDefaultRankFeatures, strconv.FormatBool(*r.IgnoreDefaultRankFeatures))
	}
	for _, f := range r.RankFeatures {
		d.props.add(KeyRankFeature, f)
	}
	for _, f := range r.SummaryFeatures {
		d.props.add(KeySummaryFeature, f)
	}
	for _, p := range r.RankProperties {
		d.props.add(p.Name, p.Value)
	}
}

func (d *rawDeriver) settings(settings []searchdef.RankSetting) error {
	for _, s := range settings {
		prefix, err := settingPrefix(s.Type)
		if err != nil {
			return &searchdef.Error{Kind: searchdef.ErrSchema, Field: s.FieldName, Message: err.Error()}
		}
		d.props.add(prefix+s.FieldName, s.ValueString())
	}
	return nil
}

func (d *rawDeriver) addInt(key string, v *int) {
	if v != nil {
		d.props.add(key, strconv.Itoa(*v))
	}
}

func settingPrefix(kind searchdef.RankSettingType) (string, error) {
	switch kind {
	case searchdef.SettingRankType:
		return PrefixRankType, nil
	case searchdef.SettingLiteralBoost:
		return PrefixLiteralBoost, nil
	case searchdef.SettingWeight:
		return PrefixFieldWeight, nil
	case searchdef.SettingPreferBitvector:
		return PrefixFilterField, nil
	}
	return "", fmt.Errorf("no property key for rank setting kind '%s'", kind)
}
