// Command gpl manages namespaced profile records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gpl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gpl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
