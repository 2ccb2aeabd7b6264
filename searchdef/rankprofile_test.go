package searchdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchema(t *testing.T) *Schema {
	t.Helper()
	s := NewSchema("test")
	_, err := s.Document().AddField("a", DataTypeString)
	require.NoError(t, err)
	_, err = s.Document().AddField("b", DataTypeString)
	require.NoError(t, err)
	return s
}

func mustSetting(t *testing.T, field string, kind RankSettingType, value any) RankSetting {
	t.Helper()
	s, err := NewRankSetting(field, kind, value)
	require.NoError(t, err)
	return s
}

func TestRankProfileInheritance(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)

	child := NewRankProfile("child", schema, registry)
	child.SetInherited("default")
	require.NoError(t, child.AddRankSetting(mustSetting(t, "a", SettingRankType, RankTypeIdentity)))
	require.NoError(t, registry.Register(child))

	settings, err := child.RankSettings()
	require.NoError(t, err)
	require.Len(t, settings, 2)

	assert.Equal(t, "a", settings[0].FieldName)
	assert.Equal(t, SettingRankType, settings[0].Type)
	assert.Equal(t, RankTypeIdentity, settings[0].Value)

	assert.Equal(t, "b", settings[1].FieldName)
	assert.Equal(t, SettingRankType, settings[1].Type)
	assert.Equal(t, RankTypeDefault, settings[1].Value)
}

func TestFieldRankTypeFlowsThroughDefault(t *testing.T) {
	schema := newTestSchema(t)
	a, _ := schema.Document().Field("a")
	a.RankType = RankTypeIdentity
	registry := NewRegistryWithBuiltins(schema)

	child := NewRankProfile("child", schema, registry)
	child.SetInherited("default")
	require.NoError(t, registry.Register(child))

	settings, err := child.RankSettings()
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, RankSetting{FieldName: "a", Type: SettingRankType, Value: RankTypeIdentity}, settings[0])
	assert.Equal(t, RankSetting{FieldName: "b", Type: SettingRankType, Value: RankTypeDefault}, settings[1])
}

func TestNearestDeclarationWins(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)

	grand := NewRankProfile("grand", schema, registry)
	require.NoError(t, grand.AddRankSetting(mustSetting(t, "a", SettingWeight, 100)))
	require.NoError(t, grand.AddRankSetting(mustSetting(t, "b", SettingWeight, 200)))
	require.NoError(t, grand.AddRankSetting(mustSetting(t, "a", SettingLiteralBoost, 7)))

	parent := NewRankProfile("parent", schema, registry)
	parent.SetInherited("grand")
	require.NoError(t, parent.AddRankSetting(mustSetting(t, "b", SettingWeight, 300)))
	require.NoError(t, parent.AddRankSetting(mustSetting(t, "a", SettingPreferBitvector, true)))

	child := NewRankProfile("child", schema, registry)
	child.SetInherited("parent")
	require.NoError(t, child.AddRankSetting(mustSetting(t, "a", SettingWeight, 50)))

	// registration order is irrelevant to resolution
	require.NoError(t, registry.Register(child))
	require.NoError(t, registry.Register(parent))
	require.NoError(t, registry.Register(grand))

	settings, err := child.RankSettings()
	require.NoError(t, err)

	want := []RankSetting{
		{FieldName: "a", Type: SettingWeight, Value: 50},
		{FieldName: "b", Type: SettingWeight, Value: 300},
		{FieldName: "a", Type: SettingPreferBitvector, Value: true},
		{FieldName: "a", Type: SettingLiteralBoost, Value: 7},
	}
	assert.Equal(t, want, settings)

	s, ok, err := child.RankSetting("b", SettingWeight)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 300, s.Value)

	_, ok, err = child.RankSetting("b", SettingLiteralBoost)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicateOwnSetting(t *testing.T) {
	schema := newTestSchema(t)
	p := NewRankProfile("p", schema, nil)
	require.NoError(t, p.AddRankSetting(mustSetting(t, "a", SettingRankType, RankTypeAbout)))
	err := p.AddRankSetting(mustSetting(t, "a", SettingRankType, RankTypeTags))
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrSchema))

	// same field, different kind is fine
	assert.NoError(t, p.AddRankSetting(mustSetting(t, "a", SettingWeight, 1)))
}

func TestScalarSettingsInheritIndependently(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)

	parent := NewRankProfile("parent", schema, registry)
	require.NoError(t, parent.SetTermwiseLimit(0.78))
	require.NoError(t, parent.SetNumThreadsPerSearch(8))
	require.NoError(t, parent.SetMinHitsPerThread(70))
	require.NoError(t, registry.Register(parent))

	child := NewRankProfile("child", schema, registry)
	child.SetInherited("parent")
	require.NoError(t, child.SetNumThreadsPerSearch(2))
	require.NoError(t, registry.Register(child))

	r, err := child.Resolve()
	require.NoError(t, err)
	require.NotNil(t, r.TermwiseLimit)
	assert.InDelta(t, 0.78, *r.TermwiseLimit, 0.000001)
	require.NotNil(t, r.NumThreadsPerSearch)
	assert.Equal(t, 2, *r.NumThreadsPerSearch)
	require.NotNil(t, r.MinHitsPerThread)
	assert.Equal(t, 70, *r.MinHitsPerThread)
	assert.Nil(t, r.NumSearchPartitions)
}

func TestScalarSettingValidation(t *testing.T) {
	p := NewRankProfile("p", newTestSchema(t), nil)
	assert.Error(t, p.SetTermwiseLimit(1.5))
	assert.Error(t, p.SetTermwiseLimit(-0.1))
	assert.NoError(t, p.SetTermwiseLimit(1))
	assert.Error(t, p.SetNumThreadsPerSearch(0))
	assert.Error(t, p.SetMinHitsPerThread(-1))
	assert.NoError(t, p.SetMinHitsPerThread(0))
	assert.Error(t, p.SetNumSearchPartitions(-3))
	assert.Error(t, p.SetRerankCount(-1))
	assert.Error(t, p.SetKeepRankCount(-1))
	assert.Error(t, p.SetFirstPhase(""))
	assert.Error(t, p.SetSecondPhase(""))
}

func TestResolveListsAndProperties(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)

	base := NewRankProfile("base", schema, registry)
	require.NoError(t, base.SetFirstPhase("nativeRank"))
	base.SetSummaryFeatures([]string{"fieldMatch(a)"})
	base.SetRankFeatures([]string{"bm25(a)"})
	base.AddRankProperty("p1", "x")
	require.NoError(t, registry.Register(base))

	derived := NewRankProfile("derived", schema, registry)
	derived.SetInherited("base")
	require.NoError(t, derived.SetSecondPhase("firstPhase * 2"))
	derived.SetSummaryFeatures([]string{"bm25(b)", "attribute(a)"})
	derived.AddRankProperty("p2", "y")
	derived.AddRankProperty("p1", "z")
	require.NoError(t, registry.Register(derived))

	r, err := derived.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "nativeRank", *r.FirstPhase)
	assert.Equal(t, "firstPhase * 2", *r.SecondPhase)
	assert.Equal(t, []string{"bm25(a)"}, r.RankFeatures)
	assert.Equal(t, []string{"bm25(b)", "attribute(a)"}, r.SummaryFeatures)
	assert.Equal(t, []RankProperty{{"p1", "x"}, {"p2", "y"}, {"p1", "z"}}, r.RankProperties)
}

func TestUnrankedBuiltin(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)
	p, err := registry.Lookup("test", UnrankedProfileName)
	require.NoError(t, err)
	assert.True(t, p.IsBuiltin())

	r, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "value(0)", *r.FirstPhase)
	assert.Equal(t, 0, *r.RerankCount)
	assert.Equal(t, 0, *r.KeepRankCount)
	assert.True(t, *r.IgnoreDefaultRankFeatures)
	assert.Empty(t, r.Settings)
}

func TestDefaultSkipsTensorFields(t *testing.T) {
	schema := newTestSchema(t)
	f, err := schema.Document().AddField("emb", DataTypeTensor)
	require.NoError(t, err)
	f.Indexing = IndexingAttribute
	f.TensorType = "tensor(x[4])"
	registry := NewRegistryWithBuiltins(schema)

	p, err := registry.Lookup("test", DefaultProfileName)
	require.NoError(t, err)
	settings, err := p.RankSettings()
	require.NoError(t, err)
	for _, s := range settings {
		assert.NotEqual(t, "emb", s.FieldName)
	}
	assert.Len(t, settings, 2)
}

func TestInheritanceCycle(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)

	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "a"}} {
		p := NewRankProfile(pair[0], schema, registry)
		p.SetInherited(pair[1])
		require.NoError(t, registry.Register(p))
	}

	d, err := registry.Lookup("test", "d")
	require.NoError(t, err)
	_, err = d.RankSettings()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInheritanceCycle))
	assert.Contains(t, err.Error(), "a -> b -> c -> a")

	err = registry.Validate("test")
	assert.True(t, IsKind(err, ErrInheritanceCycle))
}

func TestSelfInheritance(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)
	p := NewRankProfile("loop", schema, registry)
	p.SetInherited("loop")
	require.NoError(t, registry.Register(p))

	_, err := p.Resolve()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInheritanceCycle))
	assert.Contains(t, err.Error(), "loop -> loop")
}

func TestUnknownParent(t *testing.T) {
	schema := newTestSchema(t)
	registry := NewRegistryWithBuiltins(schema)
	p := NewRankProfile("orphan", schema, registry)
	p.SetInherited("missing")
	require.NoError(t, registry.Register(p))

	_, err := p.RankSettings()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrUnknownProfile))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "missing", e.Profile)
	assert.Equal(t, "test", e.Schema)
}

func TestParentMustBeInSameSchema(t *testing.T) {
	s1 := newTestSchema(t)
	s2 := NewSchema("other")
	registry := NewRegistry()
	require.NoError(t, registry.AddBuiltins(s1))
	require.NoError(t, registry.AddBuiltins(s2))

	shared := NewRankProfile("shared", s1, registry)
	require.NoError(t, registry.Register(shared))

	p := NewRankProfile("p", s2, registry)
	p.SetInherited("shared")
	require.NoError(t, registry.Register(p))

	_, err := p.Chain()
	assert.True(t, IsKind(err, ErrUnknownProfile))
}
