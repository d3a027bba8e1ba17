package mcp

import (
	"github.com/mvp-joe/code-critic/internal/chunk"
	"github.com/mvp-joe/code-critic/internal/index"
)

const (
	// DefaultSearchLimit is used when critic_search is called without a limit.
	DefaultSearchLimit = 5

	// MaxSearchLimit caps the limit argument.
	MaxSearchLimit = 50
)

// ChunkResult is the tool-facing view of a chunk. Code is only included
// when requested to keep responses small.
type ChunkResult struct {
	ID                   string   `json:"id"`
	File                 string   `json:"file"`
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	Class                string   `json:"class,omitempty"`
	LineCount            int      `json:"line_count"`
	CyclomaticComplexity int      `json:"cyclomatic_complexity"`
	NestingDepth         int      `json:"nesting_depth"`
	HasDocstring         bool     `json:"has_docstring"`
	Dependencies         []string `json:"dependencies,omitempty"`
	Similarity           float32  `json:"similarity,omitempty"`
	Code                 string   `json:"code,omitempty"`
	Critique             string   `json:"critique,omitempty"`
	RefactoredCode       string   `json:"refactored_code,omitempty"`
}

// CriticSearchRequest is the argument schema of critic_search.
type CriticSearchRequest struct {
	Query       string `json:"query" jsonschema:"required,description=Natural language or code search query"`
	Limit       int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,default=5"`
	IncludeCode bool   `json:"include_code,omitempty" jsonschema:"default=false"`
}

// CriticSearchResponse is the JSON result of critic_search.
type CriticSearchResponse struct {
	Results []ChunkResult    `json:"results"`
	Total   int              `json:"total"`
	Metrics *MetricsSnapshot `json:"metrics,omitempty"`
}

// CriticChunkResponse is the JSON result of critic_chunk.
type CriticChunkResponse struct {
	Chunk   ChunkResult   `json:"chunk"`
	Similar []ChunkResult `json:"similar,omitempty"`
}

func toResult(c *chunk.CodeChunk, similarity float32, includeCode bool) ChunkResult {
	r := ChunkResult{
		ID:                   c.ID,
		File:                 c.File,
		Name:                 c.Name,
		Type:                 c.Type,
		Class:                c.ClassName(),
		LineCount:            c.Metrics.LineCount,
		CyclomaticComplexity: c.Metrics.CyclomaticComplexity,
		NestingDepth:         c.Metrics.NestingDepth,
		HasDocstring:         c.Metrics.HasDocstring,
		Dependencies:         c.Dependencies,
		Similarity:           similarity,
		Critique:             c.LLMResponse,
	}
	if includeCode {
		r.Code = c.Code
		r.RefactoredCode = c.RefactoredCode
	}
	return r
}

func hitsToResults(hits []index.Hit, includeCode bool) []ChunkResult {
	results := make([]ChunkResult, 0, len(hits))
	for i := range hits {
		results = append(results, toResult(&hits[i].Chunk, hits[i].Similarity, includeCode))
	}
	return results
}
