package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/config"
	"github.com/mvp-joe/code-critic/internal/critic"
	"github.com/mvp-joe/code-critic/internal/llm"
)

var (
	critiqueInput  string
	critiqueOutput string
	critiqueAll    bool

	fileCritiqueInput  string
	fileCritiqueOutput string

	refactorInput  string
	refactorOutput string
)

var critiqueCmd = &cobra.Command{
	Use:   "critique",
	Short: "Ask the LLM to critique complex or undocumented entities",
	Long: `Critique selects chunks whose metrics exceed the configured thresholds
(complexity, nesting, length, magic numbers, missing docstring) and stores the
model's review in each chunk's llm_response field.

Examples:
  critic critique -i parsed.json
  critic critique -i parsed.json -o reviewed.json --all`,
	Args: cobra.NoArgs,
	RunE: runCritique,
}

var critiqueFilesCmd = &cobra.Command{
	Use:   "critique-files",
	Short: "Write one LLM critique per source file",
	Long: `Critique-files groups chunks by file and asks the model for a file-level
review based on every entity's metrics and code. The reviews are written as a
plain-text report with one "===== <file> =====" section per file.`,
	Args: cobra.NoArgs,
	RunE: runCritiqueFiles,
}

var refactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Ask the LLM to rewrite critiqued entities",
	Long: `Refactor sends every chunk that carries a critique back to the model with
that critique and stores the rewritten code in refactored_code.`,
	Args: cobra.NoArgs,
	RunE: runRefactor,
}

func init() {
	rootCmd.AddCommand(critiqueCmd)
	critiqueCmd.Flags().StringVarP(&critiqueInput, "input", "i", "", "chunk document (default from config)")
	critiqueCmd.Flags().StringVarP(&critiqueOutput, "output", "o", "", "output document (default: overwrite input)")
	critiqueCmd.Flags().BoolVar(&critiqueAll, "all", false, "critique every chunk regardless of thresholds")

	rootCmd.AddCommand(critiqueFilesCmd)
	critiqueFilesCmd.Flags().StringVarP(&fileCritiqueInput, "input", "i", "", "chunk document (default from config)")
	critiqueFilesCmd.Flags().StringVarP(&fileCritiqueOutput, "output", "o", "critique_report.txt", "report file, '-' for stdout")

	rootCmd.AddCommand(refactorCmd)
	refactorCmd.Flags().StringVarP(&refactorInput, "input", "i", "", "chunk document (default from config)")
	refactorCmd.Flags().StringVarP(&refactorOutput, "output", "o", "", "output document (default: overwrite input)")
}

// newCritic builds the model and critic described by cfg.
func newCritic(cfg *config.Config, progress critic.ProgressReporter, all bool) (*critic.Critic, error) {
	model, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		Endpoint: cfg.LLM.Endpoint,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	return critic.New(model, criticOptions(cfg, progress, all)), nil
}

func criticOptions(cfg *config.Config, progress critic.ProgressReporter, all bool) critic.Options {
	c := cfg.Critic
	return critic.Options{
		Thresholds: critic.Thresholds{
			MaxComplexity:    c.MaxComplexity,
			MaxNesting:       c.MaxNesting,
			MaxLines:         c.MaxLines,
			MaxMagicNumbers:  c.MaxMagicNumbers,
			RequireDocstring: c.RequireDocstring,
		},
		All:               all,
		MaxTokens:         c.MaxTokens,
		FileMaxTokens:     c.FileMaxTokens,
		RefactorMaxTokens: c.RefactorMaxTokens,
		Temperature:       c.Temperature,
		Progress:          progress,
	}
}

// inputPath falls back to the configured chunk document.
func inputPath(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Extraction.Output
}

func runCritique(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, err := newCritic(cfg, newProgress(cmd), critiqueAll)
	if err != nil {
		return err
	}

	input := inputPath(critiqueInput, cfg)
	output := critiqueOutput
	if output == "" {
		output = input
	}
	return critiqueDocument(ctx, cmd.OutOrStdout(), c, input, output)
}

// critiqueDocument runs a critique pass over input and writes output. The
// document is written even when the pass is interrupted so finished
// critiques are kept.
func critiqueDocument(ctx context.Context, out io.Writer, c *critic.Critic, input, output string) error {
	chunks, err := chunk.Read(input)
	if err != nil {
		return err
	}

	res, runErr := c.Critique(ctx, chunks)
	if err := chunk.Write(output, chunks); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if runErr != nil {
		return fmt.Errorf("critique interrupted after %d of %d chunks: %w", res.Completed, res.Selected, runErr)
	}

	printResult(out, "Critiqued", res, output)
	return nil
}

func runRefactor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, err := newCritic(cfg, newProgress(cmd), false)
	if err != nil {
		return err
	}

	input := inputPath(refactorInput, cfg)
	output := refactorOutput
	if output == "" {
		output = input
	}
	return refactorDocument(ctx, cmd.OutOrStdout(), c, input, output)
}

func refactorDocument(ctx context.Context, out io.Writer, c *critic.Critic, input, output string) error {
	chunks, err := chunk.Read(input)
	if err != nil {
		return err
	}

	res, runErr := c.Refactor(ctx, chunks)
	if err := chunk.Write(output, chunks); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	if runErr != nil {
		return fmt.Errorf("refactor interrupted after %d of %d chunks: %w", res.Completed, res.Selected, runErr)
	}

	if res.Selected == 0 && !quiet {
		fmt.Fprintln(out, "No critiqued chunks found; run `critic critique` first.")
	}
	printResult(out, "Refactored", res, output)
	return nil
}

func runCritiqueFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	c, err := newCritic(cfg, newProgress(cmd), false)
	if err != nil {
		return err
	}

	return critiqueFiles(ctx, cmd.OutOrStdout(), c, inputPath(fileCritiqueInput, cfg), fileCritiqueOutput)
}

func critiqueFiles(ctx context.Context, out io.Writer, c *critic.Critic, input, output string) error {
	chunks, err := chunk.Read(input)
	if err != nil {
		return err
	}

	reports, err := c.CritiqueFiles(ctx, chunks)
	if err != nil {
		return err
	}

	if output == "-" {
		return critic.WriteReport(out, reports)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := critic.WriteReport(f, reports); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	if !quiet {
		fmt.Fprintf(out, "✓ Wrote critiques of %d files to %s", len(reports), output)
		if failed > 0 {
			fmt.Fprintf(out, " (%d failed)", failed)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printResult(out io.Writer, verb string, res critic.Result, output string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "✓ %s %d of %d selected chunks, saved to %s\n", verb, res.Completed, res.Selected, output)
	for _, f := range res.Failed {
		fmt.Fprintf(out, "  failed: %v\n", f)
	}
}
