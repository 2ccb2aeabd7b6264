package commands

import (
	"flag"
	"fmt"

	"github.com/schatt/vespa/internal/cliutil"
)

// RunProfiles lists the profiles stored in a generation
func RunProfiles(env *Env, argv []string) int {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var generation, schema string
	fs.StringVar(&generation, "generation", "", "generation id (default latest)")
	fs.StringVar(&generation, "g", "", "generation id (default latest)")
	fs.StringVar(&schema, "schema", "", "only list profiles of this schema")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	store, err := env.openStore()
	if err != nil {
		return env.fail(err)
	}
	defer store.Close()

	profiles, err := store.ListProfiles(env.Ctx, generation, schema)
	if err != nil {
		return env.fail(err)
	}

	if env.format() == cliutil.FormatJSON {
		type row struct {
			Schema     string `json:"schema"`
			Profile    string `json:"profile"`
			Properties int    `json:"properties"`
		}
		rows := make([]row, 0, len(profiles))
		for _, p := range profiles {
			rows = append(rows, row{p.Schema, p.Profile, p.Properties})
		}
		cliutil.PrintJSON(env.Stdout, rows)
		return 0
	}
	for _, p := range profiles {
		fmt.Fprintf(env.Stdout, "%s/%s\t%d properties\n", p.Schema, p.Profile, p.Properties)
	}
	return 0
}
