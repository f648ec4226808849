package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ai-forge/internal/api"
	"ai-forge/internal/config"
	"ai-forge/internal/db"
	"ai-forge/internal/filetree"
	"ai-forge/internal/generation"
	"ai-forge/internal/logging"
	"ai-forge/internal/usage"
	"ai-forge/pkg/models"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		out       string
		filesOut  string
		showTree  bool
		showFiles bool
	)

	cmd := &cobra.Command{
		Use:   `generate "<prompt>"`,
		Short: "Plan and generate a project from a prompt",
		Long: `Plan a project from a prompt, generate its files and write them into a
fresh workspace. Stage progress is printed to stderr.

Examples:
  forge generate "Create a todo app with local storage"
  forge generate "Landing page for a bakery" --out bakery.zip --tree
  forge generate "Markdown notes app" --files-json notes.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("prompt must not be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server, err := api.NewServer(ctx, cfg)
			if err != nil {
				return err
			}
			defer server.Close()

			project, err := runWithProgress(ctx, server.Pipeline, prompt, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return printProject(cmd.OutOrStdout(), project, out, filesOut, showTree, showFiles)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Also write the project as a zip archive")
	cmd.Flags().StringVar(&filesOut, "files-json", "", "Also write the file mapping as JSON")
	cmd.Flags().BoolVar(&showTree, "tree", false, "Print the project's folder tree")
	cmd.Flags().BoolVar(&showFiles, "files", false, "Print every generated file")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.RunHistoryEnabled {
				return fmt.Errorf("run history is disabled")
			}

			database, err := db.NewDatabase(&db.Config{URL: cfg.DatabaseURL, SQLitePath: cfg.DatabasePath})
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := usage.NewTracker(database.GetDB()).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", usage.DefaultListLimit, "Number of runs to show")
	return cmd
}

func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	logging.Init()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runWithProgress runs the pipeline and prints each state change to w
func runWithProgress(ctx context.Context, pipeline *generation.Pipeline, prompt string, w io.Writer) (*models.GeneratedProject, error) {
	transitions := make(chan generation.StateTransition, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for tr := range transitions {
			fmt.Fprintf(w, "» %s (%dms)\n", tr.ToState, tr.DurationMs)
		}
	}()

	project, err := pipeline.GenerateProject(ctx, prompt, generation.WithTransitions(transitions))
	close(transitions)
	<-done
	return project, err
}

func printProject(w io.Writer, project *models.GeneratedProject, out, filesOut string, showTree, showFiles bool) error {
	fmt.Fprintln(w, project.Plan)
	fmt.Fprintf(w, "Workspace: %s\n", project.WorkspaceID)
	fmt.Fprintf(w, "Files: %d\n", project.Files.Len())

	if project.FailedWrites > 0 {
		fmt.Fprintf(w, "Failed writes: %d\n", project.FailedWrites)
		for _, r := range project.WriteResults {
			if !r.Written {
				fmt.Fprintf(w, "  %s: %s\n", r.Path, r.Error)
			}
		}
	}

	if showTree {
		root, err := filetree.Build(project.Files)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		if err := filetree.Render(w, root); err != nil {
			return err
		}
	}

	if showFiles {
		for path, content := range project.Files.All() {
			fmt.Fprintf(w, "\n--- %s ---\n%s\n", path, content)
		}
	}

	if filesOut != "" {
		data, err := json.MarshalIndent(project.Files, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filesOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filesOut, err)
		}
		fmt.Fprintf(w, "Wrote file mapping to %s\n", filesOut)
	}

	if out != "" {
		if project.Files.Len() == 0 {
			fmt.Fprintln(w, "No files generated; skipping archive")
			return nil
		}
		if err := writeArchive(out, project.Files); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote archive to %s\n", out)
	}
	return nil
}

func printRuns(w io.Writer, runs []models.GenerationRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	for _, r := range runs {
		detail := fmt.Sprintf("%d file(s)", r.FileCount)
		if r.Status == models.RunStatusFailed {
			detail = "failed at " + r.FailedStage
		} else if r.FailedWrites > 0 {
			detail += fmt.Sprintf(", %d failed write(s)", r.FailedWrites)
		}

		prompt := r.Prompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		fmt.Fprintf(w, "%s  %-6s  %6dms  %-28s  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Status, r.DurationMs, detail, prompt)
	}
}
