package main

import (
	"os"

	"github.com/project-relgate/relgate/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
