package commands

import (
	"flag"
	"fmt"
	"time"

	"github.com/schatt/vespa/internal/cliutil"
)

// RunGenerations lists stored generations, newest first, or deletes one
func RunGenerations(env *Env, argv []string) int {
	fs := flag.NewFlagSet("generations", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var del string
	fs.StringVar(&del, "delete", "", "delete the generation with this id")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	store, err := env.openStore()
	if err != nil {
		return env.fail(err)
	}
	defer store.Close()

	if del != "" {
		if err := store.DeleteGeneration(env.Ctx, del); err != nil {
			return env.fail(err)
		}
		fmt.Fprintf(env.Stdout, "Deleted generation %s\n", del)
		return 0
	}

	gens, err := store.ListGenerations(env.Ctx)
	if err != nil {
		return env.fail(err)
	}
	if env.format() == cliutil.FormatJSON {
		type row struct {
			ID        string    `json:"id"`
			CreatedAt time.Time `json:"created_at"`
			Profiles  int       `json:"profiles"`
		}
		rows := make([]row, 0, len(gens))
		for _, g := range gens {
			rows = append(rows, row{g.ID, g.CreatedAt, g.Profiles})
		}
		cliutil.PrintJSON(env.Stdout, rows)
		return 0
	}
	for _, g := range gens {
		fmt.Fprintf(env.Stdout, "%s\t%s\t%d profiles\n", g.ID, g.CreatedAt.Format(time.RFC3339), g.Profiles)
	}
	return 0
}
