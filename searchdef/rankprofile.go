package searchdef

import (
	"fmt"
)

const (
	DefaultProfileName  = "default"
	UnrankedProfileName = "unranked"
)

type builtinKind int

const (
	builtinNone builtinKind = iota
	builtinDefault
	builtinUnranked
)

// RankProfile is a named, optionally inherited bundle of per-field rank
// settings and profile-level tuning. The parent is a name reference into the
// registry, resolved on demand.
type RankProfile struct {
	name      string
	schema    *Schema
	registry  *Registry
	inherited string
	builtin   builtinKind

	settings []RankSetting
	declared map[settingKey]bool

	termwiseLimit       *float64
	numThreadsPerSearch *int
	minHitsPerThread    *int
	numSearchPartitions *int

	firstPhase                *string
	secondPhase               *string
	rerankCount               *int
	keepRankCount             *int
	ignoreDefaultRankFeatures *bool
	rankFeatures              []string
	summaryFeatures           []string
	rankProperties            []RankProperty
}

// NewRankProfile creates a profile for schema whose parent references are
// looked up in registry.
func NewRankProfile(name string, schema *Schema, registry *Registry) *RankProfile {
	return &RankProfile{
		name:     name,
		schema:   schema,
		registry: registry,
		declared: make(map[settingKey]bool),
	}
}

func newDefaultProfile(schema *Schema, registry *Registry) *RankProfile {
	p := NewRankProfile(DefaultProfileName, schema, registry)
	p.builtin = builtinDefault
	return p
}

func newUnrankedProfile(schema *Schema, registry *Registry) *RankProfile {
	p := NewRankProfile(UnrankedProfileName, schema, registry)
	p.builtin = builtinUnranked
	expr := "value(0)"
	zero := 0
	ignore := true
	p.firstPhase = &expr
	p.keepRankCount = &zero
	p.rerankCount = &zero
	p.ignoreDefaultRankFeatures = &ignore
	return p
}

func (p *RankProfile) Name() string { return p.name }

func (p *RankProfile) Schema() *Schema { return p.schema }

// IsBuiltin reports whether this is the schema's default or unranked profile
func (p *RankProfile) IsBuiltin() bool { return p.builtin != builtinNone }

// Inherited returns the parent profile name, or "" for a root profile
func (p *RankProfile) Inherited() string { return p.inherited }

func (p *RankProfile) SetInherited(name string) { p.inherited = name }

// AddRankSetting appends an own setting. A (field, kind) pair may only be
// declared once per profile.
func (p *RankProfile) AddRankSetting(s RankSetting) error {
	if p.declared[s.key()] {
		return &Error{
			Kind:    ErrSchema,
			Schema:  p.schemaName(),
			Profile: p.name,
			Field:   s.FieldName,
			Message: fmt.Sprintf("rank setting %s declared more than once", s.Type),
		}
	}
	p.declared[s.key()] = true
	p.settings = append(p.settings, s)
	return nil
}

func (p *RankProfile) SetTermwiseLimit(v float64) error {
	if v < 0 || v > 1 {
		return p.settingError("termwise-limit must be in [0, 1], got %v", v)
	}
	p.termwiseLimit = &v
	return nil
}

func (p *RankProfile) SetNumThreadsPerSearch(n int) error {
	if n <= 0 {
		return p.settingError("num-threads-per-search must be positive, got %d", n)
	}
	p.numThreadsPerSearch = &n
	return nil
}

func (p *RankProfile) SetMinHitsPerThread(n int) error {
	if n < 0 {
		return p.settingError("min-hits-per-thread must not be negative, got %d", n)
	}
	p.minHitsPerThread = &n
	return nil
}

func (p *RankProfile) SetNumSearchPartitions(n int) error {
	if n < 0 {
		return p.settingError("num-search-partitions must not be negative, got %d", n)
	}
	p.numSearchPartitions = &n
	return nil
}

func (p *RankProfile) SetFirstPhase(expr string) error {
	if expr == "" {
		return p.settingError("first-phase expression is empty")
	}
	p.firstPhase = &expr
	return nil
}

func (p *RankProfile) SetSecondPhase(expr string) error {
	if expr == "" {
		return p.settingError("second-phase expression is empty")
	}
	p.secondPhase = &expr
	return nil
}

func (p *RankProfile) SetRerankCount(n int) error {
	if n < 0 {
		return p.settingError("rerank-count must not be negative, got %d", n)
	}
	p.rerankCount = &n
	return nil
}

func (p *RankProfile) SetKeepRankCount(n int) error {
	if n < 0 {
		return p.settingError("keep-rank-count must not be negative, got %d", n)
	}
	p.keepRankCount = &n
	return nil
}

func (p *RankProfile) SetIgnoreDefaultRankFeatures(b bool) { p.ignoreDefaultRankFeatures = &b }

// SetRankFeatures replaces the inherited rank feature list
func (p *RankProfile) SetRankFeatures(features []string) {
	p.rankFeatures = append([]string{}, features...)
}

// SetSummaryFeatures replaces the inherited summary feature list
func (p *RankProfile) SetSummaryFeatures(features []string) {
	p.summaryFeatures = append([]string{}, features...)
}

// AddRankProperty appends a pass-through property after any inherited ones
func (p *RankProfile) AddRankProperty(name, value string) {
	p.rankProperties = append(p.rankProperties, RankProperty{Name: name, Value: value})
}

func (p *RankProfile) settingError(format string, args ...any) *Error {
	return &Error{Kind: ErrSchema, Schema: p.schemaName(), Profile: p.name, Message: fmt.Sprintf(format, args...)}
}

func (p *RankProfile) schemaName() string {
	if p.schema == nil {
		return ""
	}
	return p.schema.Name()
}

// ownSettings returns the settings declared on this profile. The default
// profile additionally carries one rank-type setting per non-tensor field.
func (p *RankProfile) ownSettings() []RankSetting {
	if p.builtin != builtinDefault || p.schema == nil || p.schema.Document() == nil {
		return p.settings
	}
	out := append([]RankSetting{}, p.settings...)
	for _, f := range p.schema.Document().Fields() {
		if f.DataType.IsTensor() {
			continue
		}
		s := RankSetting{FieldName: f.Name, Type: SettingRankType, Value: f.EffectiveRankType()}
		if !p.declared[s.key()] {
			out = append(out, s)
		}
	}
	return out
}

// Chain returns the profile followed by its ancestors, nearest first. It
// fails on an unknown parent or a cycle.
func (p *RankProfile) Chain() ([]*RankProfile, error) {
	chain := []*RankProfile{p}
	seen := map[string]int{p.name: 0}

	cur := p
	for cur.inherited != "" {
		if cur.registry == nil {
			return nil, &Error{Kind: ErrUnknownProfile, Schema: p.schemaName(), Profile: cur.inherited,
				Message: fmt.Sprintf("profile '%s' is not registered, cannot resolve parent", cur.name)}
		}
		parent, err := cur.registry.Lookup(cur.schemaName(), cur.inherited)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Message = fmt.Sprintf("parent of '%s' not found", cur.name)
			}
			return nil, err
		}
		if idx, ok := seen[parent.name]; ok {
			members := make([]string, 0, len(chain)-idx+1)
			for _, c := range chain[idx:] {
				members = append(members, c.name)
			}
			members = append(members, parent.name)
			return nil, InheritanceCycleError(p.schemaName(), members)
		}
		seen[parent.name] = len(chain)
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

// RankSettings returns the effective settings: own settings in declaration
// order, then each ancestor's settings whose (field, kind) is not yet
// covered, nearest ancestor first.
func (p *RankProfile) RankSettings() ([]RankSetting, error) {
	chain, err := p.Chain()
	if err != nil {
		return nil, err
	}
	return mergeSettings(chain), nil
}

// RankSetting returns the effective setting for (field, kind)
func (p *RankProfile) RankSetting(field string, kind RankSettingType) (RankSetting, bool, error) {
	settings, err := p.RankSettings()
	if err != nil {
		return RankSetting{}, false, err
	}
	for _, s := range settings {
		if s.FieldName == field && s.Type == kind {
			return s, true, nil
		}
	}
	return RankSetting{}, false, nil
}

func mergeSettings(chain []*RankProfile) []RankSetting {
	covered := make(map[settingKey]bool)
	var out []RankSetting
	for _, prof := range chain {
		for _, s := range prof.ownSettings() {
			if covered[s.key()] {
				continue
			}
			covered[s.key()] = true
			out = append(out, s)
		}
	}
	return out
}

// Resolved is the effective view of a profile after inheritance. Nil
// pointers mean the value was set nowhere in the chain.
type Resolved struct {
	Name     string
	Settings []RankSetting

	TermwiseLimit       *float64
	NumThreadsPerSearch *int
	MinHitsPerThread    *int
	NumSearchPartitions *int

	FirstPhase                *string
	SecondPhase               *string
	RerankCount               *int
	KeepRankCount             *int
	IgnoreDefaultRankFeatures *bool
	RankFeatures              []string
	SummaryFeatures           []string
	RankProperties            []RankProperty
}

// Resolve walks the parent chain once and produces the effective profile
func (p *RankProfile) Resolve() (*Resolved, error) {
	chain, err := p.Chain()
	if err != nil {
		return nil, err
	}

	r := &Resolved{Name: p.name, Settings: mergeSettings(chain)}

	for _, prof := range chain {
		r.TermwiseLimit = firstSet(r.TermwiseLimit, prof.termwiseLimit)
		r.NumThreadsPerSearch = firstSet(r.NumThreadsPerSearch, prof.numThreadsPerSearch)
		r.MinHitsPerThread = firstSet(r.MinHitsPerThread, prof.minHitsPerThread)
		r.NumSearchPartitions = firstSet(r.NumSearchPartitions, prof.numSearchPartitions)
		r.FirstPhase = firstSet(r.FirstPhase, prof.firstPhase)
		r.SecondPhase = firstSet(r.SecondPhase, prof.secondPhase)
		r.RerankCount = firstSet(r.RerankCount, prof.rerankCount)
		r.KeepRankCount = firstSet(r.KeepRankCount, prof.keepRankCount)
		r.IgnoreDefaultRankFeatures = firstSet(r.IgnoreDefaultRankFeatures, prof.ignoreDefaultRankFeatures)
		if r.RankFeatures == nil && prof.rankFeatures != nil {
			r.RankFeatures = prof.rankFeatures
		}
		if r.SummaryFeatures == nil && prof.summaryFeatures != nil {
			r.SummaryFeatures = prof.summaryFeatures
		}
	}

	// rank-properties accumulate root first
	for i := len(chain) - 1; i >= 0; i-- {
		r.RankProperties = append(r.RankProperties, chain[i].rankProperties...)
	}

	return r, nil
}

func firstSet[T any](cur, candidate *T) *T {
	if cur != nil {
		return cur
	}
	return candidate
}
