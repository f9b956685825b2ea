// Command qcengine runs the streaming sensor QC evaluation engine: it
// consumes CSV-encoded observations from a message bus, runs each one
// through the configured range, delta, sigma, and null checks against a
// thresholds registry, and publishes the resulting outcomes and events
// downstream. See cli.RootCmd for flag and configuration handling.
package main

import (
	"fmt"
	"os"

	"sensorqc.evalgo.org/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
