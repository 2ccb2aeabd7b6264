package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schatt/vespa/internal/cliopt"
	"github.com/schatt/vespa/internal/cliutil"
	"github.com/schatt/vespa/internal/logging"
	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/compiler"
	"github.com/schatt/vespa/searchdef/deploy"
	"github.com/schatt/vespa/searchdef/derived"
	"github.com/schatt/vespa/searchdef/queryprofile"
)

// Env is what every command runs with
type Env struct {
	Ctx     context.Context
	Options cliopt.GlobalOptions
	Log     *logging.Logger
	Metrics *compiler.Metrics
	Stdout  io.Writer
	Stderr  io.Writer

	// OpenStore defaults to cliutil.OpenStore
	OpenStore func(context.Context) (deploy.ConfigStore, error)
}

func (e *Env) openStore() (deploy.ConfigStore, error) {
	if e.OpenStore != nil {
		return e.OpenStore(e.Ctx)
	}
	return cliutil.OpenStore(e.Ctx, e.Options.Config)
}

func (e *Env) logger() *logging.Logger {
	if e.Log == nil {
		return logging.Noop()
	}
	return e.Log
}

func (e *Env) format() cliutil.OutputFormat {
	return cliutil.ParseOutputFormat(e.Options.Format)
}

func (e *Env) compileOptions() compiler.Options {
	opts := compiler.Options{Logger: e.Log, Metrics: e.Metrics}
	if e.Options.Config != nil {
		opts.Parallelism = e.Options.Config.Parallelism
	}
	return opts
}

// fail prints err and maps it to exit code 1
func (e *Env) fail(err error) int {
	fmt.Fprintln(e.Stderr, err)
	return 1
}

// usage prints msg and returns exit code 2
func (e *Env) usage(msg string) int {
	fmt.Fprintln(e.Stderr, msg)
	return 2
}

// pathList is a repeatable string flag
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }
func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// compileFiles loads every schema and query profile types file and compiles
// the schemas together
func (e *Env) compileFiles(schemaPaths, queryTypePaths []string) ([]*compiler.Result, error) {
	srcs := make([]searchdef.SchemaSource, 0, len(schemaPaths))
	for _, path := range schemaPaths {
		src, err := searchdef.LoadSchemaSource(path)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}

	queryTypes, err := loadQueryTypes(queryTypePaths)
	if err != nil {
		return nil, err
	}
	return compiler.CompileAll(e.Ctx, srcs, queryTypes, e.compileOptions())
}

// loadQueryTypes merges every file into one registry before checking
// nested type references, so types may refer across files
func loadQueryTypes(paths []string) (*queryprofile.Registry, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	reg := queryprofile.NewRegistry()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, searchdef.Wrap(searchdef.ErrIO, "read query profile types "+path, err)
		}
		src, err := queryprofile.Decode(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		if err := reg.AddSource(src); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

type propertyView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type profileView struct {
	Schema     string         `json:"schema"`
	Profile    string         `json:"profile"`
	Properties []propertyView `json:"properties"`
}

func newProfileView(schema, profile string, props derived.Properties) profileView {
	v := profileView{Schema: schema, Profile: profile, Properties: make([]propertyView, 0, len(props))}
	for _, p := range props {
		v.Properties = append(v.Properties, propertyView{Key: p.Key, Value: p.Value})
	}
	return v
}

// printProfiles writes property lists as JSON or as one "key=value" line
// per property under a "[schema/profile]" header
func (e *Env) printProfiles(views []profileView) {
	if e.format() == cliutil.FormatJSON {
		cliutil.PrintJSON(e.Stdout, views)
		return
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(e.Stdout)
		}
		fmt.Fprintf(e.Stdout, "[%s/%s]\n", v.Schema, v.Profile)
		for _, p := range v.Properties {
			fmt.Fprintln(e.Stdout, derived.Property{Key: p.Key, Value: p.Value}.String())
		}
	}
}
