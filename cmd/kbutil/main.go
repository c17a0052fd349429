// kbutil matches genome-scale metabolic models against the ModelSEED
// biochemistry and translates them between identifier namespaces.
package main

import (
	"fmt"
	"os"

	"github.com/modelseed/kbutil/internal/interfaces/cli"
)

// Injected at build time via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = gitCommit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
