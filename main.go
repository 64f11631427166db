package main

import (
	"os"

	"github.com/simdeck/simdeck/cli/cmd"
)

func main() {
	// Cobra prints the error itself; SilenceUsage keeps the noise down.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
