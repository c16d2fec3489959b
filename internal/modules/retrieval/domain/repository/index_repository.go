package repository

import (
	"context"

	"VectorLink/internal/modules/retrieval/domain/index"
)

// IndexRepository catalogs index descriptors as flat JSON files and
// resolves tokens to one-or-many of them.
type IndexRepository interface {
	Save(ctx context.Context, d *index.IndexDescriptor) error
	// Find matches on the indexId field first, then falls back to a
	// filename substring match for legacy artifacts. Nil when unknown.
	Find(ctx context.Context, indexID string) (*index.IndexDescriptor, error)
	// ResolveCollectionOrID resolves a token with priority: exact indexId
	// match > collectionName union > legacy filename match. NotFound when
	// nothing matches.
	ResolveCollectionOrID(ctx context.Context, token string) ([]*index.IndexDescriptor, error)
	List(ctx context.Context, documentID string) ([]*index.IndexDescriptor, error)
	// Delete removes the descriptor file only; backend resources are the
	// builder's concern.
	Delete(ctx context.Context, indexID string) error
}
