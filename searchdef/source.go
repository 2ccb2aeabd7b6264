package searchdef

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaSource is the parsed form of a schema definition, as produced by the
// schema language front end. YAML and JSON encodings are accepted.
type SchemaSource struct {
	Name         string              `yaml:"schema"`
	Document     DocumentSource      `yaml:"document"`
	RankProfiles []RankProfileSource `yaml:"rank-profiles,omitempty"`
}

type DocumentSource struct {
	Name   string        `yaml:"name,omitempty"`
	Fields []FieldSource `yaml:"fields,omitempty"`
}

type FieldSource struct {
	Name      string           `yaml:"name"`
	Type      string           `yaml:"type"`
	Indexing  []string         `yaml:"indexing,omitempty"`
	Attribute *AttributeSource `yaml:"attribute,omitempty"`
	RankType  string           `yaml:"rank-type,omitempty"`
}

type AttributeSource struct {
	Tensor string `yaml:"tensor,omitempty"`
}

type RankProfileSource struct {
	Name     string `yaml:"name"`
	Inherits string `yaml:"inherits,omitempty"`

	TermwiseLimit       *float64 `yaml:"termwise-limit,omitempty"`
	NumThreadsPerSearch *int     `yaml:"num-threads-per-search,omitempty"`
	MinHitsPerThread    *int     `yaml:"min-hits-per-thread,omitempty"`
	NumSearchPartitions *int     `yaml:"num-search-partitions,omitempty"`

	FirstPhase                *string              `yaml:"first-phase,omitempty"`
	SecondPhase               *string              `yaml:"second-phase,omitempty"`
	RerankCount               *int                 `yaml:"rerank-count,omitempty"`
	KeepRankCount             *int                 `yaml:"keep-rank-count,omitempty"`
	IgnoreDefaultRankFeatures *bool                `yaml:"ignore-default-rank-features,omitempty"`
	RankFeatures              []string             `yaml:"rank-features,omitempty"`
	SummaryFeatures           []string             `yaml:"summary-features,omitempty"`
	RankProperties            []RankPropertySource `yaml:"rank-properties,omitempty"`

	RankSettings []RankSettingSource `yaml:"rank-settings,omitempty"`
}

type RankPropertySource struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type RankSettingSource struct {
	Field string `yaml:"field"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// DecodeSchemaSource decodes one schema source document. Unknown keys are
// rejected.
func DecodeSchemaSource(r io.Reader) (SchemaSource, error) {
	var src SchemaSource
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return SchemaSource{}, New(ErrSchema, "empty schema source")
		}
		return SchemaSource{}, Wrap(ErrSchema, "invalid schema source", err)
	}
	return src, nil
}

// LoadSchemaSource reads and decodes a schema source file
func LoadSchemaSource(path string) (SchemaSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchemaSource{}, Wrap(ErrIO, "read schema source "+path, err)
	}
	return DecodeSchemaSource(bytes.NewReader(data))
}
