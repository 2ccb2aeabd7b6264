// Package compiler drives schema compilation end to end: building schemas
// and their rank profiles from parsed sources, resolving inheritance, and
// deriving every profile's property list.
package compiler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schatt/vespa/internal/logging"
	"github.com/schatt/vespa/searchdef"
	"github.com/schatt/vespa/searchdef/derived"
	"github.com/schatt/vespa/searchdef/queryprofile"
)

// Options configures a compile. The zero value compiles sequentially,
// without logging or metrics.
type Options struct {
	Logger      *logging.Logger
	Metrics     *Metrics
	Parallelism int
}

func (o Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.Noop()
	}
	return o.Logger
}

// Result is the compiled form of one schema
type Result struct {
	Schema   *searchdef.Schema
	Registry *searchdef.Registry
	Profiles []*derived.RawRankProfile
}

// Profile returns the derived profile with name
func (r *Result) Profile(name string) (*derived.RawRankProfile, bool) {
	for _, p := range r.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Compile builds one schema in a fresh registry and derives all of its
// profiles. queryTypes may be nil. Nothing is returned on failure.
func Compile(ctx context.Context, src searchdef.SchemaSource, queryTypes *queryprofile.Registry, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger().WithSchema(src.Name)

	res, err := compile(ctx, src, queryTypes, log)
	took := time.Since(start)
	log.LogSchema(ctx, profileCount(res), took, err)
	if err != nil {
		// a compile cancelled by a sibling's failure is not itself an error
		if !errors.Is(err, context.Canceled) {
			opts.Metrics.observeError(string(searchdef.KindOf(err)))
		}
		return nil, err
	}
	opts.Metrics.observeSuccess(len(res.Profiles), took.Seconds())
	return res, nil
}

func compile(ctx context.Context, src searchdef.SchemaSource, queryTypes *queryprofile.Registry, log *logging.Logger) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	registry := searchdef.NewRegistry()
	b := searchdef.NewBuilder(registry)
	schema, err := b.Import(src)
	if err != nil {
		return nil, err
	}
	if err := b.Build(); err != nil {
		return nil, err
	}

	d, err := derived.NewDeriver(schema, queryTypes)
	if err != nil {
		return nil, err
	}
	profiles, err := d.DeriveAll(registry)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		log.LogProfile(ctx, p.Name, len(p.Properties))
	}

	return &Result{Schema: schema, Registry: registry, Profiles: profiles}, nil
}

func profileCount(r *Result) int {
	if r == nil {
		return 0
	}
	return len(r.Profiles)
}

// CompileAll compiles independent schemas concurrently, each in its own
// registry. Results keep the order of srcs. The first failure cancels the
// remaining compiles and no results are returned.
func CompileAll(ctx context.Context, srcs []searchdef.SchemaSource, queryTypes *queryprofile.Registry, opts Options) ([]*Result, error) {
	if err := checkUniqueNames(srcs); err != nil {
		return nil, err
	}

	// nested type references fail the whole batch before any schema starts
	if queryTypes != nil {
		if _, err := queryTypes.FlattenedFields(); err != nil {
			return nil, err
		}
	}

	results := make([]*Result, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	} else {
		g.SetLimit(1)
	}

	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			res, err := Compile(ctx, src, queryTypes, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkUniqueNames(srcs []searchdef.SchemaSource) error {
	seen := make(map[string]bool, len(srcs))
	for _, s := range srcs {
		if seen[s.Name] {
			return searchdef.SchemaError(s.Name, "schema defined more than once")
		}
		seen[s.Name] = true
	}
	return nil
}
