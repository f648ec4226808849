// forge is the command-line client for AI Forge: generate a project from a
// prompt, print its file tree, or pack a file mapping into a zip archive.
package main

import (
	"fmt"
	"os"

	"ai-forge/internal/logging"
)

func main() {
	defer logging.Sync()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
