package main

import (
	"encoding/json"
	"fmt"
	"os"

	"ai-forge/pkg/models"

	"github.com/spf13/cobra"
)

// newRootCmd builds the forge command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "forge",
		Short: "Generate runnable web projects from a prompt",
		Long: `forge turns a natural-language description into a planned, generated
and materialized web project.

Available commands:
  generate - Plan and generate a project from a prompt
  tree     - Print the folder tree of a file mapping
  export   - Pack a file mapping into a zip archive
  runs     - List recent generation runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newRunsCmd())

	return root
}

// readFileSet loads a JSON object of path -> content, keeping key order
func readFileSet(path string) (*models.FileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	files := models.NewFileSet()
	if err := json.Unmarshal(data, files); err != nil {
		return nil, fmt.Errorf("failed to parse %s as a file mapping: %w", path, err)
	}
	return files, nil
}
