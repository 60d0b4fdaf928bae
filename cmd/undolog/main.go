// Command undolog records, undoes and persists action histories.
package main

import (
	"os"

	"github.com/roach88/undolog/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
