// Command htt2 is the CLI entrypoint: it parses flags, resolves targets,
// builds request templates, partitions connections across workers, and
// waits for the run to finish before printing the final report (spec.md §6).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
