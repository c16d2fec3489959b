package repository

import (
	"context"

	"VectorLink/internal/modules/retrieval/domain/index"
)

// VectorIndexBackend is the capability abstraction over one vector-db kind.
// application code depends on this interface only; infrastructure adapts
// the flat file, sqlite and milvus implementations behind it. Each call
// owns its backend resources and releases them on every exit path.
type VectorIndexBackend interface {
	Kind() index.VectorDBKind
	// BuildIndex materializes the embedding set in the backend and returns
	// the backend-specific indexInfo to store on the descriptor. A failed
	// build must leave no registry-visible state.
	BuildIndex(ctx context.Context, d *index.IndexDescriptor, set *index.EmbeddingSet) (map[string]any, error)
	// DropIndex releases backend-side resources for the descriptor.
	DropIndex(ctx context.Context, d *index.IndexDescriptor) error
}

// Embedder turns text into vectors for one concrete (provider, model)
// binding.
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderFactory binds a (provider, model) pair to a concrete embedding
// backend. Unknown providers are Unsupported.
type EmbedderFactory interface {
	Embedder(ctx context.Context, provider, model string) (Embedder, error)
	// Dimensions reports the expected dimensionality for a provider/model,
	// used by the degraded fallback vector.
	Dimensions(provider, model string) int
}
