// Package main is the entry point for the chatdock terminal UI.
package main

import (
	"fmt"
	"os"

	"chatdock/internal/widgettui"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	if err := widgettui.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
