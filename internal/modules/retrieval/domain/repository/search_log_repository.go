package repository

import (
	"context"

	"VectorLink/internal/modules/retrieval/domain/index"
)

// SearchLogRepository persists search responses immutably under fresh
// search ids.
type SearchLogRepository interface {
	Save(ctx context.Context, r *index.SearchResponse) error
	List(ctx context.Context, limit int) ([]*index.SearchResponse, error)
}
