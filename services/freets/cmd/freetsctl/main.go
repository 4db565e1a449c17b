package main

import (
	"fmt"
	"os"

	"github.com/example/fritter/services/freets/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "freetsctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
