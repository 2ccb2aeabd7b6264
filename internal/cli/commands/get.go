package commands

import (
	"flag"
)

// RunGet prints the stored property list of one profile
func RunGet(env *Env, argv []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var generation, schema, profile string
	fs.StringVar(&generation, "generation", "", "generation id (default latest)")
	fs.StringVar(&generation, "g", "", "generation id (default latest)")
	fs.StringVar(&schema, "schema", "", "schema name")
	fs.StringVar(&profile, "profile", "", "profile name")
	fs.StringVar(&profile, "p", "", "profile name")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if schema == "" || profile == "" {
		return env.usage("missing --schema or --profile")
	}

	store, err := env.openStore()
	if err != nil {
		return env.fail(err)
	}
	defer store.Close()

	props, err := store.LoadProperties(env.Ctx, generation, schema, profile)
	if err != nil {
		return env.fail(err)
	}
	env.printProfiles([]profileView{newProfileView(schema, profile, props)})
	return 0
}
