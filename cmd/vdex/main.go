// Command vdex is the entry point for the vdex document indexing service.
// It provides a CLI interface (via Cobra) for running the HTTP API server
// and managing the relational schema.
package main

import (
	"fmt"
	"os"

	"github.com/vdex/vdex/cmd/vdex/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
