package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/git"
	"github.com/mvp-joe/code-critic/internal/parser"
	"github.com/mvp-joe/code-critic/internal/watcher"
)

var (
	parseOutput  string
	parseWatch   bool
	parseWorkers int
)

var parseCmd = &cobra.Command{
	Use:   "parse <path|git-url>",
	Short: "Extract Python entities and metrics into a chunk document",
	Long: `Parse walks a local directory or a cloned git repository, extracts every
function, method and class from its Python files together with structural
metrics, and writes them as a JSON chunk document.

Examples:
  # Parse a local checkout
  critic parse ./myrepo -o parsed.json

  # Clone and parse a remote repository
  critic parse https://github.com/user/project.git

  # Re-extract whenever a Python file changes
  critic parse . --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "output chunk document (default from config, parsed_repo.json)")
	parseCmd.Flags().BoolVarP(&parseWatch, "watch", "w", false, "watch for changes and re-extract")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "parallel extraction workers (default one per CPU)")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	output := parseOutput
	if output == "" {
		output = cfg.Extraction.Output
	}
	opts := cfg.WalkOptions()
	if parseWorkers > 0 {
		opts.Workers = parseWorkers
	}

	target := args[0]
	root := target
	if git.IsRemote(target) {
		if parseWatch {
			return errors.New("--watch requires a local path")
		}
		dir, cleanup, err := git.Clone(ctx, target)
		if err != nil {
			return err
		}
		defer cleanup()
		root = dir
	}

	progress := newProgress(cmd)
	opts.Progress = progress.OnExtractProgress

	if err := parseRepository(ctx, cmd.OutOrStdout(), root, output, opts); err != nil {
		return err
	}

	if !parseWatch {
		return nil
	}

	statusf(cmd, "Watching %s for changes (Ctrl+C to stop)...\n", root)
	opts.Progress = nil
	ex := &watcher.DocumentExtractor{Root: root, Output: output, Options: opts}
	err = watcher.Watch(ctx, root, opts, ex, nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// parseRepository walks root and writes the chunk document to output.
func parseRepository(ctx context.Context, out io.Writer, root, output string, opts parser.WalkOptions) error {
	chunks, stats, err := parser.WalkRepository(ctx, root, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := chunk.Write(output, chunks); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	for _, f := range stats.Failed {
		log.Printf("Warning: %s: %v", f.File, f.Err)
	}

	if !quiet {
		fmt.Fprintf(out, "✓ Extracted %s code chunks from %s files to %s\n",
			formatNumber(stats.Chunks), formatNumber(stats.Files), output)
		if len(stats.Failed) > 0 || len(stats.Skipped) > 0 {
			fmt.Fprintf(out, "  Failed files:     %d\n", len(stats.Failed))
			fmt.Fprintf(out, "  Skipped entities: %d\n", len(stats.Skipped))
		}
	}
	return nil
}
