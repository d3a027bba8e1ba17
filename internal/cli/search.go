package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/index"
)

var (
	searchLimit    int
	searchIndexDir string
	searchShowCode bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the chunks most similar to a query",
	Long: `Search embeds the query and prints the most similar chunks from the
index built by "critic embed".

Examples:
  critic search "parse command line arguments"
  critic search "def retry(" -k 10 --code`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchIndexDir, "index-dir", "", "index directory (default from config)")
	searchCmd.Flags().BoolVar(&searchShowCode, "code", false, "print the code of each result")
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	ix, err := index.Open(indexDir(searchIndexDir, cfg), provider)
	if err != nil {
		return err
	}
	defer ix.Close()

	k := searchLimit
	if k <= 0 {
		k = cfg.Index.SearchLimit
	}
	return search(ctx, cmd.OutOrStdout(), ix, strings.Join(args, " "), k, searchShowCode)
}

func search(ctx context.Context, out io.Writer, ix *index.Index, query string, k int, showCode bool) error {
	hits, err := ix.Search(ctx, query, k)
	if err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Fprintln(out, "No results. Has the index been built with `critic embed`?")
		return nil
	}

	for i, h := range hits {
		c := h.Chunk
		fmt.Fprintf(out, "%d. %s  [%s, similarity %.3f]\n", i+1, c.ID, c.Type, h.Similarity)
		fmt.Fprintf(out, "   lines=%d complexity=%d nesting=%d docstring=%t\n",
			c.Metrics.LineCount, c.Metrics.CyclomaticComplexity, c.Metrics.NestingDepth, c.Metrics.HasDocstring)
		if showCode {
			for _, line := range strings.Split(c.Code, "\n") {
				fmt.Fprintf(out, "   | %s\n", line)
			}
		}
	}
	return nil
}
