package main

import (
	"fmt"
	"os"

	"github.com/medisync/medisync/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "medisync: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
