// Command poolstress drives a fixed worker pool with synthetic load and
// verifies that every accepted task runs exactly once.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
