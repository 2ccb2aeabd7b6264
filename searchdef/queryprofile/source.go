package queryprofile

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schatt/vespa/searchdef"
)

// TypesSource is the parsed form of a query profile types file
type TypesSource struct {
	Types []TypeSource `yaml:"query-profile-types"`
}

type TypeSource struct {
	ID     string        `yaml:"id"`
	Fields []FieldSource `yaml:"fields,omitempty"`
}

type FieldSource struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Decode reads a query profile types document. Unknown keys are rejected.
func Decode(r io.Reader) (TypesSource, error) {
	var src TypesSource
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return TypesSource{}, nil
		}
		return TypesSource{}, searchdef.Wrap(searchdef.ErrSchema, "invalid query profile types source", err)
	}
	return src, nil
}

// Load reads, decodes and builds a query profile types file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, searchdef.Wrap(searchdef.ErrIO, "read query profile types "+path, err)
	}
	src, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Build(src)
}

// Build registers every declared type and checks nested references
func Build(src TypesSource) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.AddSource(src); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// AddSource registers the types of src into r without validating
// cross-type references, so several files may be merged first.
func (r *Registry) AddSource(src TypesSource) error {
	for _, ts := range src.Types {
		t := NewType(ts.ID)
		for _, fs := range ts.Fields {
			if err := t.AddField(fs.Name, fs.Type); err != nil {
				return err
			}
		}
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
