package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/config"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "critic",
	Short: "Critic - structural analysis and LLM review of Python repositories",
	Long: `Critic extracts every function, method and class from a Python repository
into a JSON chunk document with structural metrics, then uses a language model
to critique and refactor the entities that look risky.

Typical pipeline:
  critic parse ./repo -o parsed.json
  critic critique -i parsed.json
  critic refactor -i parsed.json
  critic embed -i parsed.json
  critic search "retry with exponential backoff"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(cmd.ErrOrStderr())
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .critic/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable progress bars and status output")
}

// loadConfig loads the explicit --config file when given, otherwise the
// layered configuration rooted at the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.NewFileLoader(cfgFile).Load()
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose {
		if cfgFile != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", cfgFile)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "LLM: %s/%s, embeddings: %s/%s\n",
			cfg.LLM.Provider, cfg.LLM.Model, cfg.Embedding.Provider, cfg.Embedding.Model)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// statusf prints a status line to the command's output unless --quiet.
func statusf(cmd *cobra.Command, format string, args ...interface{}) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// newProgress returns a reporter honoring --quiet.
func newProgress(cmd *cobra.Command) *CLIProgressReporter {
	return NewCLIProgressReporter(cmd.ErrOrStderr(), quiet)
}
