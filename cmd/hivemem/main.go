package main

import (
	"os"

	"github.com/spawnlab/hivemem/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
