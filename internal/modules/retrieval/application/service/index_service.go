package service

import (
	"context"
	"strings"
	"time"

	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/internal/modules/retrieval/infrastructure/vectordb"
	"VectorLink/pkg/util"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"go.uber.org/zap"
)

// IndexService builds, versions and deletes persisted index artifacts.
type IndexService interface {
	// Build materializes an embedding set in the requested backend and
	// commits the descriptor only after the backend build succeeds.
	Build(ctx context.Context, documentID, embeddingID, kind, collectionName, indexName, version string) (*index.IndexDescriptor, error)
	// Update rewrites the descriptor under a new version and timestamp.
	// The prior file stays in place; history is append-only.
	Update(ctx context.Context, indexID, version string) (*index.IndexDescriptor, error)
	// Delete drops backend resources (best-effort for remote-ann) and
	// removes the local descriptor.
	Delete(ctx context.Context, indexID string) error
	List(ctx context.Context, documentID string) ([]*index.IndexDescriptor, error)
	Find(ctx context.Context, indexID string) (*index.IndexDescriptor, error)
}

type indexServiceImpl struct {
	conf     *config.Config
	embRepo  repository.EmbeddingRepository
	idxRepo  repository.IndexRepository
	backends *vectordb.Registry
}

func NewIndexService(conf *config.Config, embRepo repository.EmbeddingRepository, idxRepo repository.IndexRepository, backends *vectordb.Registry) IndexService {
	return &indexServiceImpl{conf: conf, embRepo: embRepo, idxRepo: idxRepo, backends: backends}
}

func (s *indexServiceImpl) Build(ctx context.Context, documentID, embeddingID, kind, collectionName, indexName, version string) (*index.IndexDescriptor, error) {
	if strings.TrimSpace(kind) == "" {
		kind = s.conf.VectorDBConfig.DefaultKind
	}
	dbKind, err := index.ParseVectorDBKind(kind)
	if err != nil {
		return nil, err
	}

	set, err := s.embRepo.Load(ctx, documentID, embeddingID)
	if err != nil {
		return nil, err
	}
	if len(set.Embeddings) == 0 {
		return nil, xerr.NewValidation("embedding set %s has no records", embeddingID)
	}

	if collectionName == "" {
		collectionName = index.SanitizeName(index.DocumentFilenameFromID(documentID))
	}
	if indexName == "" {
		indexName = "idx_" + prefixOf(embeddingID, 12)
	}
	if version == "" {
		version = "1.0"
	}

	total := 0
	for _, rec := range set.Embeddings {
		if len(rec.Vector) == set.Dimensions {
			total++
		}
	}

	d := &index.IndexDescriptor{
		DocumentID:       documentID,
		DocumentFilename: index.DocumentFilenameFromID(documentID),
		IndexID:          "idx_" + util.GenerateShortUUID(),
		Timestamp:        time.Now().Format(index.TimestampLayout),
		VectorDB:         dbKind,
		CollectionName:   collectionName,
		IndexName:        index.SanitizeName(indexName),
		Version:          version,
		Dimensions:       set.Dimensions,
		TotalVectors:     total,
		EmbeddingID:      embeddingID,
		EmbeddingModel:   set.Model,
		Provider:         set.Provider,
	}

	backend, err := s.backends.Backend(dbKind)
	if err != nil {
		return nil, err
	}
	info, err := backend.BuildIndex(ctx, d, set)
	if err != nil {
		// Nothing was committed to the registry; the failed build leaves no
		// visible descriptor.
		return nil, err
	}
	d.IndexInfo = info

	if err := s.idxRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	zlog.Info("index built",
		zap.String("index_id", d.IndexID),
		zap.String("document_id", documentID),
		zap.String("vector_db", dbKind.String()),
		zap.String("collection", collectionName),
		zap.Int("total_vectors", total))
	return d, nil
}

func (s *indexServiceImpl) Update(ctx context.Context, indexID, version string) (*index.IndexDescriptor, error) {
	existing, err := s.idxRepo.Find(ctx, indexID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, xerr.NewNotFound("index %s not found", indexID)
	}
	if strings.TrimSpace(version) == "" {
		return nil, xerr.NewValidation("version is required")
	}

	updated := *existing
	updated.Version = version
	updated.Timestamp = time.Now().Format(index.TimestampLayout)
	if err := s.idxRepo.Save(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *indexServiceImpl) Delete(ctx context.Context, indexID string) error {
	d, err := s.idxRepo.Find(ctx, indexID)
	if err != nil {
		return err
	}
	if d == nil {
		return xerr.NewNotFound("index %s not found", indexID)
	}

	// Backend cleanup is best-effort: a dead remote must not block the
	// local deletion.
	if backend, err := s.backends.Backend(d.VectorDB); err == nil {
		if err := backend.DropIndex(ctx, d); err != nil {
			zlog.Warn("backend index drop failed, deleting descriptor anyway",
				zap.String("index_id", indexID),
				zap.String("vector_db", d.VectorDB.String()),
				zap.Error(err))
		}
	}

	return s.idxRepo.Delete(ctx, d.IndexID)
}

func (s *indexServiceImpl) List(ctx context.Context, documentID string) ([]*index.IndexDescriptor, error) {
	return s.idxRepo.List(ctx, documentID)
}

func (s *indexServiceImpl) Find(ctx context.Context, indexID string) (*index.IndexDescriptor, error) {
	d, err := s.idxRepo.Find(ctx, indexID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, xerr.NewNotFound("index %s not found", indexID)
	}
	return d, nil
}

func prefixOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
