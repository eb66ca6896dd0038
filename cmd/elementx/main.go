// Command elementx computes precursor masses for solid-state synthesis,
// keeps a per-user sample history and imports XRD and magnetometry files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
