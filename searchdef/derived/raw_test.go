package derived

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/queryprofile"
)

const tensorSchema = `
schema: test
document:
  fields:
    - {name: a, type: tensor, indexing: [attribute], attribute: {tensor: "tensor(x[10])"}}
    - {name: b, type: tensor, indexing: [attribute], attribute: {tensor: "tensor(y{})"}}
    - {name: c, type: tensor, indexing: [attribute]}
rank-profiles:
  - name: p1
  - name: p2
`

const queryTypes = `
query-profile-types:
  - id: testtype
    fields:
      - {name: "ranking.features.query(tensor1)", type: "tensor(x[10])"}
      - {name: "ranking.features.query(tensor2)", type: "tensor(y{})"}
      - {name: "ranking.features.invalid(tensor3)", type: "tensor(x{})"}
      - {name: "ranking.features.query(numeric)", type: integer}
`

func buildSchema(t *testing.T, src string) (*searchdef.Schema, *searchdef.Registry) {
	t.Helper()
	registry := searchdef.NewRegistry()
	b := searchdef.NewBuilder(registry)
	schema, err := b.ImportBytes([]byte(src))
	require.NoError(t, err)
	require.NoError(t, b.Build())
	return schema, registry
}

func buildQueryTypes(t *testing.T, src string) *queryprofile.Registry {
	t.Helper()
	s, err := queryprofile.Decode(strings.NewReader(src))
	require.NoError(t, err)
	reg, err := queryprofile.Build(s)
	require.NoError(t, err)
	return reg
}

func TestTuningProperties(t *testing.T) {
	schema, registry := buildSchema(t, `
schema: test
rank-profiles:
  - name: parent
    termwise-limit: 0.78
    num-threads-per-search: 8
    min-hits-per-thread: 70
    num-search-partitions: 1200
  - name: child
    inherits: parent
`)
	d, err := NewDeriver(schema, nil)
	require.NoError(t, err)

	for _, name := range []string{"parent", "child"} {
		p, err := registry.Lookup("test", name)
		require.NoError(t, err)
		raw, err := d.Derive(p)
		require.NoError(t, err)

		assert.Equal(t, Properties{
			{KeyTermwiseLimit, "0.78"},
			{KeyNumThreadsPerSearch, "8"},
			{KeyMinHitsPerThread, "70"},
			{KeyNumSearchPartitions, "1200"},
		}, raw.Properties, name)
	}
}

func TestUnsetTuningOmitted(t *testing.T) {
	schema, registry := buildSchema(t, `
schema: test
rank-profiles:
  - name: p
    termwise-limit: 1.0
`)
	d, err := NewDeriver(schema, nil)
	require.NoError(t, err)
	p, _ := registry.Lookup("test", "p")
	raw, err := d.Derive(p)
	require.NoError(t, err)

	v, ok := raw.Properties.Get(KeyTermwiseLimit)
	require.True(t, ok)
	assert.Equal(t, "1.0", v)
	_, ok = raw.Properties.Get(KeyNumThreadsPerSearch)
	assert.False(t, ok)
}

func TestAttributeTypeProperties(t *testing.T) {
	schema, registry := buildSchema(t, tensorSchema)
	d, err := NewDeriver(schema, nil)
	require.NoError(t, err)

	all, err := d.DeriveAll(registry)
	require.NoError(t, err)
	require.Len(t, all, 4)

	var names []string
	for _, raw := range all {
		names = append(names, raw.Name)
		v, ok := raw.Properties.Get("vespa.type.attribute.a")
		require.True(t, ok, raw.Name)
		assert.Equal(t, "tensor(x[10])", v)
		v, ok = raw.Properties.Get("vespa.type.attribute.b")
		require.True(t, ok, raw.Name)
		assert.Equal(t, "tensor(y{})", v)
		_, ok = raw.Properties.Get("vespa.type.attribute.c")
		assert.False(t, ok, raw.Name)
	}
	assert.Equal(t, []string{"default", "unranked", "p1", "p2"}, names)
}

func TestQueryFeatureTypeProperties(t *testing.T) {
	schema, registry := buildSchema(t, tensorSchema)
	d, err := NewDeriver(schema, buildQueryTypes(t, queryTypes))
	require.NoError(t, err)

	all, err := d.DeriveAll(registry)
	require.NoError(t, err)
	require.Len(t, all, 4)

	for _, raw := range all {
		v, ok := raw.Properties.Get("vespa.type.query.tensor1")
		require.True(t, ok, raw.Name)
		assert.Equal(t, "tensor(x[10])", v)
		v, ok = raw.Properties.Get("vespa.type.query.tensor2")
		require.True(t, ok, raw.Name)
		assert.Equal(t, "tensor(y{})", v)
		_, ok = raw.Properties.Get("vespa.type.query.tensor3")
		assert.False(t, ok, raw.Name)
		_, ok = raw.Properties.Get("vespa.type.query.numeric")
		assert.False(t, ok, raw.Name)
	}
}

func TestTypePropertiesAreProfileIndependent(t *testing.T) {
	schema, registry := buildSchema(t, tensorSchema+`
  - name: tuned
    inherits: default
    termwise-limit: 0.1
    rank-settings:
      - {field: a, kind: weight, value: "10"}
`)
	d, err := NewDeriver(schema, buildQueryTypes(t, queryTypes))
	require.NoError(t, err)
	all, err := d.DeriveAll(registry)
	require.NoError(t, err)

	want := append(Properties{}, d.AttributeFields().Properties()...)
	want = append(want, d.QueryFeatureTypes().Properties()...)
	for _, raw := range all {
		got := append(raw.Properties.WithPrefix(PrefixAttributeType), raw.Properties.WithPrefix(PrefixQueryType)...)
		assert.Equal(t, want, got, raw.Name)
	}
}

func TestPropertyOrdering(t *testing.T) {
	schema, registry := buildSchema(t, `
schema: test
document:
  fields:
    - {name: title, type: string, indexing: [index], rank-type: about}
    - {name: body, type: string, indexing: [index]}
    - {name: emb, type: tensor, indexing: [attribute], attribute: {tensor: "tensor<float>(x[4])"}}
rank-profiles:
  - name: base
    inherits: default
    num-threads-per-search: 4
    first-phase: nativeRank(title)
    rank-properties:
      - {name: my.prop, value: "1"}
  - name: child
    inherits: base
    termwise-limit: 0.5
    rerank-count: 100
    summary-features: [bm25(title)]
    rank-settings:
      - {field: body, kind: rank-type, value: identity}
      - {field: title, kind: literal-boost, value: "20"}
`)
	d, err := NewDeriver(schema, buildQueryTypes(t, `
query-profile-types:
  - id: q
    fields:
      - {name: "ranking.features.query(user)", type: "tensor<float>(x[4])"}
`))
	require.NoError(t, err)

	child, err := registry.Lookup("test", "child")
	require.NoError(t, err)
	raw, err := d.Derive(child)
	require.NoError(t, err)

	assert.Equal(t, Properties{
		{KeyTermwiseLimit, "0.5"},
		{KeyNumThreadsPerSearch, "4"},
		{KeyFirstPhase, "nativeRank(title)"},
		{KeyRerankCount, "100"},
		{KeySummaryFeature, "bm25(title)"},
		{"my.prop", "1"},
		{"vespa.ranktype.body", "identity"},
		{"vespa.literalboost.title", "20"},
		{"vespa.ranktype.title", "about"},
		{"vespa.type.attribute.emb", "tensor<float>(x[4])"},
		{"vespa.type.query.user", "tensor<float>(x[4])"},
	}, raw.Properties)
}

func TestUnrankedProperties(t *testing.T) {
	schema, registry := buildSchema(t, "schema: test\n")
	d, err := NewDeriver(schema, nil)
	require.NoError(t, err)
	p, err := registry.Lookup("test", searchdef.UnrankedProfileName)
	require.NoError(t, err)
	raw, err := d.Derive(p)
	require.NoError(t, err)

	assert.Equal(t, Properties{
		{KeyFirstPhase, "value(0)"},
		{KeyRerankCount, "0"},
		{KeyKeepRankCount, "0"},
		{KeyIgnoreDefaultRankFeatures, "true"},
	}, raw.Properties)
}

func TestDeriveForeignProfile(t *testing.T) {
	schema, _ := buildSchema(t, "schema: one\n")
	other, otherReg := buildSchema(t, "schema: two\n")
	require.NotSame(t, schema, other)

	d, err := NewDeriver(schema, nil)
	require.NoError(t, err)
	p, err := otherReg.Lookup("two", searchdef.DefaultProfileName)
	require.NoError(t, err)
	_, err = d.Derive(p)
	assert.True(t, searchdef.IsKind(err, searchdef.ErrSchema))
}

func TestMalformedAttributeTypeFailsDeriver(t *testing.T) {
	schema := searchdef.NewSchema("test")
	f, err := schema.Document().AddField("a", searchdef.DataTypeTensor)
	require.NoError(t, err)
	f.Indexing = searchdef.IndexingAttribute
	f.TensorType = "tensor(x[10)"

	_, err = NewDeriver(schema, nil)
	require.Error(t, err)
	var e *searchdef.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, searchdef.ErrTypeFormat, e.Kind)
	assert.Equal(t, "a", e.Field)
	assert.Equal(t, "test", e.Schema)
}

func TestDuplicateQueryFeatureKeepsFirst(t *testing.T) {
	reg := buildQueryTypes(t, `
query-profile-types:
  - id: one
    fields:
      - {name: "ranking.features.query(q)", type: "tensor(x[1])"}
  - id: two
    fields:
      - {name: "ranking.features.query(q)", type: "tensor(x[2])"}
`)
	q, err := NewQueryFeatureTypes(reg)
	require.NoError(t, err)
	assert.Equal(t, Properties{{"vespa.type.query.q", "tensor(x[1])"}}, q.Properties())
	require.Len(t, q.Features(), 1)
	assert.Equal(t, "q", q.Features()[0].Name)
}

func TestPropertiesLookup(t *testing.T) {
	ps := Properties{{"k", "1"}, {"j", "2"}, {"k", "3"}}
	v, ok := ps.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, []string{"1", "3"}, ps.Values("k"))
	assert.Nil(t, ps.Values("missing"))
	assert.Equal(t, `k="1"`, ps[0].String())
}

func TestFormatFloat(t *testing.T) {
	for in, want := range map[float64]string{
		0.78:    "0.78",
		0.5:     "0.5",
		1:       "1.0",
		0:       "0.0",
		0.001:   "0.001",
		1e-5:    "1.0E-5",
		2.5e-4:  "2.5E-4",
		1234567: "1234567.0",
		1.5e7:   "1.5E7",
	} {
		assert.Equal(t, want, formatFloat(in), "%v", in)
	}
}
