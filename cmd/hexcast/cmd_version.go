package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hexcast version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hexcast %s (commit=%s, date=%s)\n", version, commit, date)
	},
}
