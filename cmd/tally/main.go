// Package main provides the tally CLI for analyzing chess.com players' recent games.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
