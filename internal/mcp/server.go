package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/code-critic/internal/embed"
)

// ServerName is reported to MCP clients.
const ServerName = "critic-mcp"

// MCPServerConfig contains configuration for the MCP server.
type MCPServerConfig struct {
	IndexDir    string
	SearchLimit int    // Default limit for critic_search
	Version     string // Reported to clients
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	config   MCPServerConfig
	searcher Searcher
	watcher  *IndexWatcher
	provider embed.Provider
	mcp      *server.MCPServer
}

// NewMCPServer opens the index and registers the critic tools. The server
// owns provider and closes it in Close.
func NewMCPServer(config MCPServerConfig, provider embed.Provider) (*MCPServer, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}

	searcher, err := NewIndexSearcher(config.IndexDir, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	watcher, err := NewIndexWatcher(searcher, config.IndexDir)
	if err != nil {
		searcher.Close()
		return nil, fmt.Errorf("failed to create index watcher: %w", err)
	}

	s := newServer(config, searcher, watcher)
	s.provider = provider
	return s, nil
}

func newServer(config MCPServerConfig, searcher Searcher, watcher *IndexWatcher) *MCPServer {
	version := config.Version
	if version == "" {
		version = "dev"
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	AddCriticSearchTool(mcpServer, searcher, config.SearchLimit)
	AddCriticChunkTool(mcpServer, searcher)

	return &MCPServer{
		config:   config,
		searcher: searcher,
		watcher:  watcher,
		mcp:      mcpServer,
	}
}

// Serve serves MCP on stdio until the client disconnects or ctx is done.
func (s *MCPServer) Serve(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Start(ctx)
		defer s.watcher.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	}
}

// Close releases all resources.
func (s *MCPServer) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	err := s.searcher.Close()
	if s.provider != nil {
		if perr := s.provider.Close(); err == nil {
			err = perr
		}
	}
	return err
}
