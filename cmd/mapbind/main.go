// Command mapbind mounts, validates, tests and replays declarative map trees.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mapbind/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
