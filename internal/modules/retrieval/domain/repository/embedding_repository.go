package repository

import (
	"context"

	"VectorLink/internal/modules/retrieval/domain/index"
)

// EmbeddingRepository persists embedding sets as whole-file JSON artifacts.
// Writers always use freshly generated ids, so concurrent writers never
// collide and readers observe either a complete artifact or nothing.
type EmbeddingRepository interface {
	// Save writes the artifact and returns its path.
	Save(ctx context.Context, set *index.EmbeddingSet) (string, error)
	// Load locates the artifact by scanning for a filename or content match.
	// Missing sets are NotFound.
	Load(ctx context.Context, documentID, embeddingID string) (*index.EmbeddingSet, error)
	// Locate returns the artifact filename without decoding the body.
	Locate(ctx context.Context, documentID, embeddingID string) (string, error)
	// Delete removes the artifact by embedding id. Descriptors referencing
	// it are intentionally left orphaned.
	Delete(ctx context.Context, embeddingID string) error
	// List returns set headers (records elided) with an optional document
	// filter. A missing directory yields an empty list.
	List(ctx context.Context, documentID string) ([]*index.EmbeddingSet, error)
}
