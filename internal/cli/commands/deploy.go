package commands

import (
	"flag"
	"fmt"

	"github.com/schatt/vespa/internal/cliutil"
	"github.com/schatt/vespa/searchdef/deploy"
)

// RunDeploy compiles schemas and stores every derived profile as a new
// generation
func RunDeploy(env *Env, argv []string) int {
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var schemas, queryTypes pathList
	fs.Var(&schemas, "schema", "schema source file (repeatable)")
	fs.Var(&schemas, "s", "schema source file (repeatable)")
	fs.Var(&queryTypes, "query-types", "query profile types file (repeatable)")
	fs.Var(&queryTypes, "q", "query profile types file (repeatable)")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if len(schemas) == 0 {
		return env.usage("missing --schema")
	}

	results, err := env.compileFiles(schemas, queryTypes)
	if err != nil {
		return env.fail(err)
	}

	store, err := env.openStore()
	if err != nil {
		return env.fail(err)
	}
	defer store.Close()

	gen := deploy.NewGeneration(results)
	id, err := store.SaveGeneration(env.Ctx, gen)
	env.logger().LogGeneration(env.Ctx, id, len(gen.Profiles), err)
	if err != nil {
		return env.fail(err)
	}

	if env.format() == cliutil.FormatJSON {
		cliutil.PrintJSON(env.Stdout, map[string]any{"generation": id, "profiles": len(gen.Profiles)})
		return 0
	}
	fmt.Fprintf(env.Stdout, "Deployed generation %s (%d profiles)\n", id, len(gen.Profiles))
	return 0
}
