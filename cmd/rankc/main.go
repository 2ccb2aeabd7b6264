package main

import (
	"os"

	"github.com/schatt/vespa/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
