package cli

import (
	"fmt"
	"io"
)

func PrintRootHelp(w io.Writer) {
	fmt.Fprintln(w, `rankc - rank profile compiler and config store

USAGE
  rankc [global flags] <command> [args]

GLOBAL FLAGS
  --config <file.yaml>
  --backend sqlite|postgres|redis
  --sqlite-path <file.db>
  --sqlite-driver sqlite|sqlite3
  --pg-dsn <dsn>
  --pg-schema <name>
  --redis-addr <host:port>
  --redis-password <pw>
  --redis-db <n>
  --log-level debug|info|warn|error
  --log-format text|json
  --parallelism <n>
  --format pretty|json
  --metrics

COMMANDS
  compile -s <schema.yaml>... [-q <types.yaml>]... [--profile <name>]
  deploy -s <schema.yaml>... [-q <types.yaml>]...
  profiles [--generation <id>] [--schema <name>]
  get --schema <name> --profile <name> [--generation <id>]
  generations [--delete <id>]

Settings come from --config, then .env and RANKC_* variables, then flags.
Exit codes: 0 ok, 1 compile or store error, 2 usage or config error.`)
}
