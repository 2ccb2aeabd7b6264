package commands

import (
	"flag"
	"fmt"
)

// RunCompile compiles schemas and prints the derived property lists
func RunCompile(env *Env, argv []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var schemas, queryTypes pathList
	var profile string
	fs.Var(&schemas, "schema", "schema source file (repeatable)")
	fs.Var(&schemas, "s", "schema source file (repeatable)")
	fs.Var(&queryTypes, "query-types", "query profile types file (repeatable)")
	fs.Var(&queryTypes, "q", "query profile types file (repeatable)")
	fs.StringVar(&profile, "profile", "", "only print this profile")
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

	var views []profileView
	for _, r := range results {
		for _, p := range r.Profiles {
			if profile != "" && p.Name != profile {
				continue
			}
			views = append(views, newProfileView(p.Schema, p.Name, p.Properties))
		}
	}
	if profile != "" && len(views) == 0 {
		return env.fail(fmt.Errorf("no compiled schema has a profile named %q", profile))
	}
	env.printProfiles(views)
	return 0
}
