// Package main is the entry point for the prlink CLI.
package main

import (
	"os"

	"github.com/prlinkhq/prlink-bot/cmd/prlink/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
