package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/config"
	"github.com/mvp-joe/code-critic/internal/embed"
	"github.com/mvp-joe/code-critic/internal/index"
)

var (
	embedInput    string
	embedIndexDir string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed chunk code into the similarity index",
	Long: `Embed generates a vector for every chunk's code with the configured
embedding provider and replaces the contents of the index directory: a
chromem-go vector store plus a SQLite catalog of the chunks.

Examples:
  critic embed -i parsed.json
  critic embed -i parsed.json --index-dir /tmp/critic-index`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringVarP(&embedInput, "input", "i", "", "chunk document (default from config)")
	embedCmd.Flags().StringVar(&embedIndexDir, "index-dir", "", "index directory (default from config, .critic/index)")
}

// newEmbedProvider creates and initializes the configured provider.
func newEmbedProvider(ctx context.Context, cfg *config.Config) (embed.Provider, error) {
	provider, err := embed.NewProvider(embed.Config{
		Provider:   cfg.Embedding.Provider,
		Endpoint:   cfg.Embedding.Endpoint,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	if err := provider.Initialize(ctx); err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	return provider, nil
}

func indexDir(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Index.Dir
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	provider, err := newEmbedProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	return embedDocument(ctx, cmd.OutOrStdout(), newProgress(cmd), provider, cfg,
		inputPath(embedInput, cfg), indexDir(embedIndexDir, cfg))
}

func embedDocument(ctx context.Context, out io.Writer, progress *CLIProgressReporter, provider embed.Provider, cfg *config.Config, input, dir string) error {
	chunks, err := chunk.Read(input)
	if err != nil {
		return err
	}

	ix, err := index.Open(dir, provider)
	if err != nil {
		return err
	}
	defer ix.Close()

	updates := make(chan embed.BatchProgress, 16)
	drained := make(chan struct{})
	go progress.TrackEmbedding(len(chunks), updates, drained)

	run, err := ix.Build(ctx, chunks, index.BuildOptions{
		BatchSize: cfg.Embedding.BatchSize,
		Progress:  updates,
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
	})
	close(updates)
	<-drained
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(out, "✓ Indexed %s chunks (%d dimensions) in %s\n",
			formatNumber(run.ChunkCount), run.Dimensions, dir)
	}
	return nil
}
