package embed

import "context"

// EmbedMode specifies the type of embedding to generate.
type EmbedMode string

const (
	// EmbedModeQuery generates embeddings optimized for search queries.
	// Use this when embedding user questions or search terms.
	EmbedModeQuery EmbedMode = "query"

	// EmbedModePassage generates embeddings optimized for document passages.
	// Use this when embedding code chunks.
	EmbedModePassage EmbedMode = "passage"
)

// Provider defines the interface for embedding text into vectors.
// Implementations may use local servers, remote APIs, or a deterministic mock.
type Provider interface {
	// Initialize prepares the provider and blocks until ready.
	// Remote providers check the server so misconfiguration fails early.
	// Must be called before Embed().
	Initialize(ctx context.Context) error

	// Embed converts a slice of text strings into their vector representations.
	// The mode parameter specifies whether embeddings are for queries or passages.
	// Returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)

	// Dimensions returns the dimensionality of the embedding vectors produced by
	// this provider. Remote providers report 0 until the first vector arrives.
	Dimensions() int

	// Close releases any resources held by the provider.
	Close() error
}

// prefixFor returns the instruction prefix nomic-style models expect for mode.
func prefixFor(mode EmbedMode) string {
	if mode == EmbedModeQuery {
		return "search_query: "
	}
	return "search_document: "
}
