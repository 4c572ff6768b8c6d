// Command cosmos plans satellite observations for a problem file and writes
// the plan statistics and action trace next to it.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
