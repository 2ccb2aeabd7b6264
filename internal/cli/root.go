package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/schatt/vespa/internal/cli/commands"
	"github.com/schatt/vespa/internal/cliopt"
	"github.com/schatt/vespa/internal/cliutil"
	"github.com/schatt/vespa/internal/config"
)

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return Run(ctx, argv, os.Stdout, os.Stderr)
}

// Run is Execute with explicit context and output streams
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	globalFS := flag.NewFlagSet("rankc", flag.ContinueOnError)
	globalFS.SetOutput(stderr)
	g := cliopt.DefaultGlobalOptions()
	binding := cliopt.BindGlobalFlags(globalFS, &g)

	if err := globalFS.Parse(argv); err != nil {
		// flag package already printed the error
		return 2
	}

	args := globalFS.Args()
	if len(args) == 0 {
		PrintRootHelp(stdout)
		return 0
	}

	verb := args[0]
	rest := args[1:]

	var run func(*commands.Env, []string) int
	switch verb {
	case "--help", "-h", "help":
		PrintRootHelp(stdout)
		return 0
	case "compile":
		run = commands.RunCompile
	case "deploy":
		run = commands.RunDeploy
	case "profiles":
		run = commands.RunProfiles
	case "get":
		run = commands.RunGet
	case "generations":
		run = commands.RunGenerations
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", verb)
		PrintRootHelp(stderr)
		return 2
	}

	cfg, errs := config.Read(g.ConfigPath)
	if cfg == nil {
		return printErrors(stderr, errs)
	}
	binding.Apply(cfg)
	if errs = append(errs, cfg.Validate()...); len(errs) > 0 {
		return printErrors(stderr, errs)
	}

	log, err := cliutil.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log.DebugContext(ctx, "config loaded", "config", cfg.LogSummary())

	env := &commands.Env{
		Ctx:     ctx,
		Options: g,
		Log:     log,
		Stdout:  stdout,
		Stderr:  stderr,
	}
	if !g.Metrics {
		return run(env, rest)
	}

	metrics, reg, err := cliutil.NewMetrics()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	env.Metrics = metrics
	code := run(env, rest)
	if err := cliutil.DumpMetrics(stderr, reg); err != nil {
		fmt.Fprintln(stderr, err)
	}
	return code
}

func printErrors(w io.Writer, errs []error) int {
	for _, err := range errs {
		fmt.Fprintln(w, "config:", err)
	}
	return 2
}
