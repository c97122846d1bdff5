package main

import (
	"os"

	"github.com/jhoicas/ptu-audit/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
