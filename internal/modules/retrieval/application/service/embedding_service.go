package service

import (
	"context"
	"strings"
	"time"

	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/internal/modules/retrieval/infrastructure/embedding"
	"VectorLink/pkg/util"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"go.uber.org/zap"
)

// EmbeddingService turns text units into persisted embedding sets and
// embeds ad-hoc query strings.
type EmbeddingService interface {
	// Create embeds the units with (provider, model) and writes one JSON
	// artifact under a freshly generated embedding id.
	Create(ctx context.Context, documentID string, units []index.TextUnit, provider, model string) (*index.EmbeddingSet, error)
	Load(ctx context.Context, documentID, embeddingID string) (*index.EmbeddingSet, error)
	// EmbedQuery embeds a single query string. The bool is true when the
	// backend failed and the deterministic degraded fallback was used.
	EmbedQuery(ctx context.Context, text, provider, model string) ([]float32, bool, error)
	Delete(ctx context.Context, embeddingID string) error
	List(ctx context.Context, documentID string) ([]*index.EmbeddingSet, error)
}

type embeddingServiceImpl struct {
	conf    *config.Config
	repo    repository.EmbeddingRepository
	factory repository.EmbedderFactory
}

func NewEmbeddingService(conf *config.Config, repo repository.EmbeddingRepository, factory repository.EmbedderFactory) EmbeddingService {
	return &embeddingServiceImpl{conf: conf, repo: repo, factory: factory}
}

func (s *embeddingServiceImpl) defaults(provider, model string) (string, string) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if provider == "" {
		provider = strings.ToLower(strings.TrimSpace(s.conf.AIConfig.Embedding.Provider))
	}
	if model == "" {
		model = strings.TrimSpace(s.conf.AIConfig.Embedding.Model)
	}
	return provider, model
}

func (s *embeddingServiceImpl) Create(ctx context.Context, documentID string, units []index.TextUnit, provider, model string) (*index.EmbeddingSet, error) {
	if len(units) == 0 {
		return nil, xerr.NewValidation("no text units supplied for document %s", documentID)
	}
	provider, model = s.defaults(provider, model)

	embedder, err := s.factory.Embedder(ctx, provider, model)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	// eino embedders take the whole batch in one call.
	vectors, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, xerr.NewBackend("embed %d units with %s/%s: %v", len(units), provider, model, err)
	}
	if len(vectors) != len(units) {
		return nil, xerr.NewBackend("embedding backend returned %d vectors for %d units", len(vectors), len(units))
	}

	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	records := make([]index.EmbeddingRecord, len(units))
	for i, u := range units {
		records[i] = index.EmbeddingRecord{
			Vector:   toFloat32(vectors[i]),
			Metadata: u.Metadata,
			Text:     u.Text,
		}
	}

	set := &index.EmbeddingSet{
		DocumentID:      documentID,
		EmbeddingID:     "emb_" + util.GenerateShortUUID(),
		Provider:        provider,
		Model:           model,
		Dimensions:      dims,
		Timestamp:       time.Now().Format(index.TimestampLayout),
		TotalEmbeddings: len(records),
		Embeddings:      records,
	}
	if _, err := s.repo.Save(ctx, set); err != nil {
		return nil, err
	}
	zlog.Info("embedding set created",
		zap.String("document_id", documentID),
		zap.String("embedding_id", set.EmbeddingID),
		zap.String("provider", provider),
		zap.Int("total", set.TotalEmbeddings),
		zap.Int("dimensions", dims))
	return set, nil
}

func (s *embeddingServiceImpl) Load(ctx context.Context, documentID, embeddingID string) (*index.EmbeddingSet, error) {
	return s.repo.Load(ctx, documentID, embeddingID)
}

func (s *embeddingServiceImpl) EmbedQuery(ctx context.Context, text, provider, model string) ([]float32, bool, error) {
	provider, model = s.defaults(provider, model)

	embedder, err := s.factory.Embedder(ctx, provider, model)
	if err == nil {
		var vectors [][]float64
		vectors, err = embedder.EmbedStrings(ctx, []string{text})
		if err == nil && len(vectors) == 1 {
			return toFloat32(vectors[0]), false, nil
		}
	}

	if !s.conf.AIConfig.Embedding.AllowDegraded {
		if xerr.IsUnsupported(err) || xerr.IsValidation(err) {
			return nil, false, err
		}
		return nil, false, xerr.NewBackend("embed query with %s/%s: %v", provider, model, err)
	}

	// Degraded path: deterministic pseudo-random vector of the provider's
	// expected dimensionality. Debug behavior only, flagged to the caller.
	zlog.Warn("query embedding failed, using degraded fallback vector",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Error(err))
	dim := s.factory.Dimensions(provider, model)
	return toFloat32(embedding.DeterministicVector(text, dim)), true, nil
}

func (s *embeddingServiceImpl) Delete(ctx context.Context, embeddingID string) error {
	// Index descriptors referencing this set are left in place; searches
	// over them skip with a diagnostic.
	return s.repo.Delete(ctx, embeddingID)
}

func (s *embeddingServiceImpl) List(ctx context.Context, documentID string) ([]*index.EmbeddingSet, error) {
	return s.repo.List(ctx, documentID)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
