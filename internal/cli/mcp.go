package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-critic/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for semantic chunk search",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered coding
assistants search the extracted entities of your repository.

The MCP server:
- Serves the index built by "critic embed"
- Provides the critic_search and critic_chunk tools
- Reloads automatically when the index is rebuilt
- Communicates via stdio (standard MCP transport)

Example:
  critic mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	// stdout carries the MCP protocol; status goes to stderr.
	fmt.Fprintf(os.Stderr, "Critic MCP Server\n")
	fmt.Fprintf(os.Stderr, "Index: %s\n\n", cfg.Index.Dir)

	provider, err := newEmbedProvider(ctx, cfg)
	if err != nil {
		return err
	}

	server, err := mcp.NewMCPServer(mcp.MCPServerConfig{
		IndexDir:    cfg.Index.Dir,
		SearchLimit: cfg.Index.SearchLimit,
		Version:     Version,
	}, provider)
	if err != nil {
		provider.Close()
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
