package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// DefaultMockDimensions is the vector size of a mock provider built with 0.
const DefaultMockDimensions = 384

// mockProvider generates deterministic embeddings for tests and offline runs.
type mockProvider struct {
	dimensions int
}

// NewMockProvider creates a mock embedding provider. Vectors are derived from
// a sha256 of the text, so equal texts always get equal vectors.
func NewMockProvider(dimensions int) Provider {
	if dimensions <= 0 {
		dimensions = DefaultMockDimensions
	}
	return &mockProvider{dimensions: dimensions}
}

func (p *mockProvider) Initialize(ctx context.Context) error {
	return nil
}

// Embed generates mock embeddings by hashing the input text. Vectors are
// normalized to unit length as chromem-go expects for cosine similarity.
func (p *mockProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))

	for i, text := range texts {
		hash := sha256.Sum256([]byte(text))

		embedding := make([]float32, p.dimensions)
		var norm float64
		for j := 0; j < p.dimensions; j++ {
			// Walk the hash in 4-byte windows; re-hash once exhausted so long
			// vectors do not repeat.
			if j > 0 && (j*4)%len(hash) == 0 {
				hash = sha256.Sum256(hash[:])
			}
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			embedding[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
			norm += float64(embedding[j]) * float64(embedding[j])
		}

		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range embedding {
				embedding[j] *= scale
			}
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}

func (p *mockProvider) Dimensions() int {
	return p.dimensions
}

func (p *mockProvider) Close() error {
	return nil
}
