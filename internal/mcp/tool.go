package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/code-critic/internal/storage"
)

// AddCriticSearchTool registers the critic_search tool.
func AddCriticSearchTool(s *server.MCPServer, searcher Searcher, defaultLimit int) {
	tool := mcp.NewTool(
		"critic_search",
		mcp.WithDescription("Semantic search over the extracted Python functions, methods and classes of the indexed repository. Returns matching entities with their structural metrics and any stored critique."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description or code snippet (e.g., 'retry with backoff', 'def parse_config')")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results to return (1-%d, default: %d)", MaxSearchLimit, defaultLimit))),
		mcp.WithBoolean("include_code",
			mcp.Description("Include source code of each result (default: false)")),
	)

	s.AddTool(tool, createCriticSearchHandler(searcher, defaultLimit))
}

func createCriticSearchHandler(searcher Searcher, defaultLimit int) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		args := CriticSearchRequest{
			Query:       query,
			Limit:       parseClampedInt(argsMap, "limit", defaultLimit, 1, MaxSearchLimit),
			IncludeCode: parseBoolArg(argsMap, "include_code", false),
		}

		hits, err := searcher.Search(ctx, args.Query, args.Limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		metrics := searcher.GetMetrics()
		return jsonResult(&CriticSearchResponse{
			Results: hitsToResults(hits, args.IncludeCode),
			Total:   len(hits),
			Metrics: &metrics,
		})
	}
}

// AddCriticChunkTool registers the critic_chunk tool.
func AddCriticChunkTool(s *server.MCPServer, searcher Searcher) {
	tool := mcp.NewTool(
		"critic_chunk",
		mcp.WithDescription("Fetch one extracted entity by id (e.g. 'pkg/io.py::load'), including its source code, metrics, critique and refactored code. Optionally lists the most similar entities."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Chunk id in the form '<file>::<name>'")),
		mcp.WithNumber("similar",
			mcp.Description(fmt.Sprintf("Number of similar entities to include (0-%d, default: 0)", MaxSearchLimit))),
	)

	s.AddTool(tool, createCriticChunkHandler(searcher))
}

func createCriticChunkHandler(searcher Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		id, err := parseStringArg(argsMap, "id", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		sc, err := searcher.GetChunk(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("chunk not found: %s", id)), nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup failed: %w", err)
		}

		response := &CriticChunkResponse{Chunk: toResult(&sc.Chunk, 0, true)}

		if n := parseClampedInt(argsMap, "similar", 0, 0, MaxSearchLimit); n > 0 {
			hits, err := searcher.SearchChunk(ctx, id, n)
			if err != nil {
				return nil, fmt.Errorf("similarity search failed: %w", err)
			}
			response.Similar = hitsToResults(hits, false)
		}

		return jsonResult(response)
	}
}

// jsonResult returns v as a JSON text result (mcp-go convention).
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
