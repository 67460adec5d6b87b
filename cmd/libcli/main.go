// Command libcli runs the open and role-gated circulation variants against a
// local SQLite file. The actor is taken from flags and is never verified.
package main

import (
	"fmt"
	"os"

	"libtrack/internal/pkg/clock"
)

func main() {
	if err := newRootCmd(clock.System{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
