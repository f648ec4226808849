package main

import (
	"encoding/json"
	"fmt"
	"os"

	"ai-forge/internal/archive"
	"ai-forge/internal/filetree"
	"ai-forge/internal/metrics"
	"ai-forge/pkg/models"

	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree <files.json>",
		Short: "Print the folder tree of a file mapping",
		Long: `Print the folder/file hierarchy of a JSON object mapping paths to contents.

Examples:
  forge tree files.json          # indented text
  forge tree files.json --json   # tree nodes as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFileSet(args[0])
			if err != nil {
				return err
			}

			root, err := filetree.Build(files)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(root)
			}
			return filetree.Render(cmd.OutOrStdout(), root)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tree as JSON")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out, name string

	cmd := &cobra.Command{
		Use:   "export <files.json>",
		Short: "Pack a file mapping into a zip archive",
		Long: `Write every file of a JSON path -> content mapping into a zip archive.

Examples:
  forge export files.json --out app.zip
  forge export files.json --name "Todo App"   # writes todo-app.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFileSet(args[0])
			if err != nil {
				return err
			}

			if out == "" {
				out = archive.Filename(name)
			}
			if err := writeArchive(out, files); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d file(s) to %s\n", files.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Archive path (default derived from --name)")
	cmd.Flags().StringVar(&name, "name", "", "Project name used for the default archive name")
	return cmd
}

// writeArchive exports files and writes the zip to path
func writeArchive(path string, files *models.FileSet) error {
	data, err := archive.Export(files)
	metrics.Get().RecordArchiveExport(len(data), err)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
