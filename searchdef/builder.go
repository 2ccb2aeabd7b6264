package searchdef

import (
	"bytes"
	"fmt"

	"github.com/schatt/vespa/searchdef/tensor"
)

// Builder turns parsed schema sources into schemas whose profiles are
// registered in a shared registry. Build validates everything imported.
type Builder struct {
	registry *Registry
	schemas  []*Schema
}

func NewBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

func (b *Builder) Registry() *Registry { return b.registry }

// Schemas returns the imported schemas in import order
func (b *Builder) Schemas() []*Schema {
	out := make([]*Schema, len(b.schemas))
	copy(out, b.schemas)
	return out
}

// Schema returns the first imported schema, or nil
func (b *Builder) Schema() *Schema {
	if len(b.schemas) == 0 {
		return nil
	}
	return b.schemas[0]
}

// ImportFile loads and imports a schema source file
func (b *Builder) ImportFile(path string) (*Schema, error) {
	src, err := LoadSchemaSource(path)
	if err != nil {
		return nil, err
	}
	return b.Import(src)
}

// ImportBytes decodes and imports a YAML or JSON schema source
func (b *Builder) ImportBytes(data []byte) (*Schema, error) {
	src, err := DecodeSchemaSource(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return b.Import(src)
}

// Import creates the schema, registers its built-in profiles, then the
// declared ones. A declaration named default or unranked customizes the
// built-in profile. A failed import leaves the registry as it was.
func (b *Builder) Import(src SchemaSource) (_ *Schema, err error) {
	for _, s := range b.schemas {
		if s.Name() == src.Name {
			return nil, SchemaError(src.Name, "schema imported twice")
		}
	}

	schema := NewSchema(src.Name)
	docName := src.Document.Name
	if docName == "" {
		docName = src.Name
	}
	doc := NewDocument(docName)
	for _, fs := range src.Document.Fields {
		if err := addField(doc, fs); err != nil {
			return nil, InSchema(err, src.Name)
		}
	}
	schema.SetDocument(doc)

	mark := b.registry.mark()
	defer func() {
		if err != nil {
			b.registry.rollback(mark)
		}
	}()

	if err := b.registry.AddBuiltins(schema); err != nil {
		return nil, err
	}

	for _, ps := range src.RankProfiles {
		var p *RankProfile
		switch ps.Name {
		case DefaultProfileName, UnrankedProfileName:
			builtin, err := b.registry.Lookup(schema.Name(), ps.Name)
			if err != nil {
				return nil, err
			}
			p = builtin
		default:
			p = NewRankProfile(ps.Name, schema, b.registry)
			if err := b.registry.Register(p); err != nil {
				return nil, err
			}
		}
		if err := applyProfileSource(p, ps); err != nil {
			return nil, InSchema(err, src.Name)
		}
	}

	b.schemas = append(b.schemas, schema)
	return schema, nil
}

// Build validates every imported schema and resolves all inheritance chains
func (b *Builder) Build() error {
	for _, s := range b.schemas {
		if err := s.Validate(); err != nil {
			return err
		}
		if err := b.registry.Validate(s.Name()); err != nil {
			return err
		}
	}
	return nil
}

func addField(doc *Document, fs FieldSource) error {
	dt, err := ParseDataType(fs.Type)
	if err != nil {
		return &Error{Kind: ErrSchema, Field: fs.Name, Message: err.Error()}
	}
	f, err := doc.AddField(fs.Name, dt)
	if err != nil {
		return err
	}
	for _, ix := range fs.Indexing {
		flag, err := ParseIndexing(ix)
		if err != nil {
			return &Error{Kind: ErrSchema, Field: fs.Name, Message: err.Error()}
		}
		f.Indexing |= flag
	}
	if fs.Attribute != nil && fs.Attribute.Tensor != "" {
		if _, err := tensor.Parse(fs.Attribute.Tensor); err != nil {
			return TypeFormatError(fs.Name, err)
		}
		f.TensorType = fs.Attribute.Tensor
	}
	if fs.RankType != "" {
		rt, err := ParseRankType(fs.RankType)
		if err != nil {
			return &Error{Kind: ErrSchema, Field: fs.Name, Message: err.Error()}
		}
		f.RankType = rt
	}
	return nil
}

func applyProfileSource(p *RankProfile, ps RankProfileSource) error {
	if ps.Inherits != "" {
		p.SetInherited(ps.Inherits)
	}

	for _, ss := range ps.RankSettings {
		setting, err := ParseRankSetting(ss.Field, ss.Kind, ss.Value)
		if err != nil {
			return &Error{Kind: ErrSchema, Profile: p.Name(), Field: ss.Field, Message: err.Error()}
		}
		if _, ok := p.schema.Document().Field(ss.Field); !ok {
			return &Error{Kind: ErrSchema, Profile: p.Name(), Field: ss.Field, Message: fmt.Sprintf("rank setting %s for unknown field", ss.Kind)}
		}
		if err := p.AddRankSetting(setting); err != nil {
			return err
		}
	}

	if ps.TermwiseLimit != nil {
		if err := p.SetTermwiseLimit(*ps.TermwiseLimit); err != nil {
			return err
		}
	}
	if ps.NumThreadsPerSearch != nil {
		if err := p.SetNumThreadsPerSearch(*ps.NumThreadsPerSearch); err != nil {
			return err
		}
	}
	if ps.MinHitsPerThread != nil {
		if err := p.SetMinHitsPerThread(*ps.MinHitsPerThread); err != nil {
			return err
		}
	}
	if ps.NumSearchPartitions != nil {
		if err := p.SetNumSearchPartitions(*ps.NumSearchPartitions); err != nil {
			return err
		}
	}
	if ps.FirstPhase != nil {
		if err := p.SetFirstPhase(*ps.FirstPhase); err != nil {
			return err
		}
	}
	if ps.SecondPhase != nil {
		if err := p.SetSecondPhase(*ps.SecondPhase); err != nil {
			return err
		}
	}
	if ps.RerankCount != nil {
		if err := p.SetRerankCount(*ps.RerankCount); err != nil {
			return err
		}
	}
	if ps.KeepRankCount != nil {
		if err := p.SetKeepRankCount(*ps.KeepRankCount); err != nil {
			return err
		}
	}
	if ps.IgnoreDefaultRankFeatures != nil {
		p.SetIgnoreDefaultRankFeatures(*ps.IgnoreDefaultRankFeatures)
	}
	if ps.RankFeatures != nil {
		p.SetRankFeatures(ps.RankFeatures)
	}
	if ps.SummaryFeatures != nil {
		p.SetSummaryFeatures(ps.SummaryFeatures)
	}
	for _, rp := range ps.RankProperties {
		if rp.Name == "" {
			return &Error{Kind: ErrSchema, Profile: p.Name(), Message: "rank property without name"}
		}
		p.AddRankProperty(rp.Name, rp.Value)
	}
	return nil
}
