// ktimport imports KeepTrack XML exports into a time-series store.
package main

import (
	"os"

	"github.com/xtxerr/ktimport/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		logging.Error("ktimport failed", "error", err)
		os.Exit(1)
	}
}
