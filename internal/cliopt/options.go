package cliopt

import (
	"flag"

	"github.com/schatt/vespa/internal/config"
)

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
// Store and logging settings start from the loaded config file; flags given
// on the command line override them.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command router and per-command code.
type GlobalOptions struct {
	ConfigPath string
	Config     *config.Config

	Format  string
	Metrics bool
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Config: config.Default(),
		Format: "pretty",
	}
}

// storeFlags holds the raw values of the flags that override config keys
type storeFlags struct {
	backend, sqlitePath, sqliteDriver string
	pgDSN, pgSchema                   string
	redisAddr, redisPassword          string
	redisDB                           int
	logLevel, logFormat               string
	parallelism                       int
}

// Binding ties a flag set to the options it fills. Apply copies the
// explicitly set override flags onto a loaded config.
type Binding struct {
	fs    *flag.FlagSet
	g     *GlobalOptions
	store storeFlags
}

func BindGlobalFlags(fs *flag.FlagSet, g *GlobalOptions) *Binding {
	b := &Binding{fs: fs, g: g}
	d := g.Config
	if d == nil {
		d = config.Default()
	}

	fs.StringVar(&g.ConfigPath, "config", g.ConfigPath, "YAML config file")

	fs.StringVar(&b.store.backend, "backend", d.Backend, "backend: sqlite|postgres|redis")

	fs.StringVar(&b.store.sqlitePath, "sqlite-path", d.SQLitePath, "sqlite database file")
	fs.StringVar(&b.store.sqliteDriver, "sqlite-driver", d.SQLiteDriver, "sqlite driver: sqlite (pure Go) or sqlite3 (cgo)")

	fs.StringVar(&b.store.pgDSN, "pg-dsn", d.PostgresDSN, "postgres DSN")
	fs.StringVar(&b.store.pgSchema, "pg-schema", d.PostgresSchema, "postgres schema name")

	fs.StringVar(&b.store.redisAddr, "redis-addr", d.RedisAddr, "redis address host:port")
	fs.StringVar(&b.store.redisPassword, "redis-password", d.RedisPassword, "redis password")
	fs.IntVar(&b.store.redisDB, "redis-db", d.RedisDB, "redis db number")

	fs.StringVar(&b.store.logLevel, "log-level", d.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&b.store.logFormat, "log-format", d.LogFormat, "log format: text|json")
	fs.IntVar(&b.store.parallelism, "parallelism", d.Parallelism, "schemas compiled concurrently")

	fs.StringVar(&g.Format, "format", g.Format, "output format: pretty|json")
	fs.BoolVar(&g.Metrics, "metrics", g.Metrics, "print compile metrics to stderr on exit")
	return b
}

// Apply overrides cfg with every store or logging flag that was set and
// stores the result in the options
func (b *Binding) Apply(cfg *config.Config) {
	b.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = b.store.backend
		case "sqlite-path":
			cfg.SQLitePath = b.store.sqlitePath
		case "sqlite-driver":
			cfg.SQLiteDriver = b.store.sqliteDriver
		case "pg-dsn":
			cfg.PostgresDSN = b.store.pgDSN
		case "pg-schema":
			cfg.PostgresSchema = b.store.pgSchema
		case "redis-addr":
			cfg.RedisAddr = b.store.redisAddr
		case "redis-password":
			cfg.RedisPassword = b.store.redisPassword
		case "redis-db":
			cfg.RedisDB = b.store.redisDB
		case "log-level":
			cfg.LogLevel = b.store.logLevel
		case "log-format":
			cfg.LogFormat = b.store.logFormat
		case "parallelism":
			cfg.Parallelism = b.store.parallelism
		}
	})
	b.g.Config = cfg
}
