package main

import (
	"os"

	"github.com/wonny/bondcvar/cmd/bondcvar/commands"
)

// main is the entry point for the bondcvar CLI
// ⭐ go run ./cmd/bondcvar [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
