package service

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/util"
	"VectorLink/pkg/zlog"

	"go.uber.org/zap"
)

// ProviderResolver attributes an index descriptor to the (provider, model)
// pair that produced its vectors.
type ProviderResolver interface {
	Resolve(ctx context.Context, d *index.IndexDescriptor) (provider, model string)
}

// SearchService answers top-k similarity queries against a single index or
// a named collection spanning several of them.
type SearchService interface {
	Search(ctx context.Context, idOrCollection, query string, topK int, similarityThreshold float64, minChars int) (*index.SearchResponse, error)
	History(ctx context.Context, limit int) ([]*index.SearchResponse, error)
}

type searchServiceImpl struct {
	idxRepo    repository.IndexRepository
	embRepo    repository.EmbeddingRepository
	searchRepo repository.SearchLogRepository
	resolver   ProviderResolver
	embSvc     EmbeddingService
}

func NewSearchService(
	idxRepo repository.IndexRepository,
	embRepo repository.EmbeddingRepository,
	searchRepo repository.SearchLogRepository,
	resolver ProviderResolver,
	embSvc EmbeddingService,
) SearchService {
	return &searchServiceImpl{
		idxRepo:    idxRepo,
		embRepo:    embRepo,
		searchRepo: searchRepo,
		resolver:   resolver,
		embSvc:     embSvc,
	}
}

// candidate pairs a scored record with its merge ordering. order preserves
// first-encountered position so equal similarities tie-break stably.
type candidate struct {
	result index.SearchResult
	order  int
}

func (s *searchServiceImpl) Search(ctx context.Context, idOrCollection, query string, topK int, similarityThreshold float64, minChars int) (*index.SearchResponse, error) {
	started := time.Now()

	descriptors, err := s.idxRepo.ResolveCollectionOrID(ctx, idOrCollection)
	if err != nil {
		return nil, err
	}

	resp := &index.SearchResponse{
		SearchID:            "srch_" + util.GenerateShortUUID(),
		Query:               query,
		IndexOrCollection:   idOrCollection,
		TopK:                topK,
		SimilarityThreshold: similarityThreshold,
		MinChars:            minChars,
		Timestamp:           started.Format(index.TimestampLayout),
	}

	// Query vectors are memoized per (provider, model): descriptors built
	// with the same pair share one embedding call.
	queryVectors := make(map[[2]string][]float32)

	var (
		candidates  []candidate
		embeddingMs int64
		searchMs    int64
	)

	for _, d := range descriptors {
		resp.IndexIDs = append(resp.IndexIDs, d.IndexID)

		provider, model := s.resolver.Resolve(ctx, d)

		key := [2]string{provider, model}
		queryVec, ok := queryVectors[key]
		if !ok {
			embedStart := time.Now()
			vec, degraded, err := s.embSvc.EmbedQuery(ctx, query, provider, model)
			embeddingMs += time.Since(embedStart).Milliseconds()
			if err != nil {
				resp.Diagnostics = append(resp.Diagnostics, index.SearchDiagnostic{
					IndexID:    d.IndexID,
					DocumentID: d.DocumentID,
					Stage:      "embed-query",
					Message:    err.Error(),
				})
				continue
			}
			if degraded {
				resp.Degraded = true
			}
			queryVectors[key] = vec
			queryVec = vec
		}

		scanStart := time.Now()
		hits, err := s.scoreDescriptor(ctx, d, queryVec, similarityThreshold, minChars, len(candidates))
		searchMs += time.Since(scanStart).Milliseconds()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Orphaned or unreadable embedding sets skip this descriptor;
			// the rest of the collection still answers.
			zlog.Warn("descriptor skipped during search",
				zap.String("search_id", resp.SearchID),
				zap.String("index_id", d.IndexID),
				zap.Error(err))
			resp.Diagnostics = append(resp.Diagnostics, index.SearchDiagnostic{
				IndexID:    d.IndexID,
				DocumentID: d.DocumentID,
				Stage:      "load-embeddings",
				Message:    err.Error(),
			})
			continue
		}
		candidates = append(candidates, hits...)
	}

	postStart := time.Now()

	// Global merge: similarity descending, ties by first-encountered order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].result.Similarity != candidates[j].result.Similarity {
			return candidates[i].result.Similarity > candidates[j].result.Similarity
		}
		return candidates[i].order < candidates[j].order
	})

	resp.TotalCandidates = len(candidates)
	limit := topK
	if limit < 0 {
		limit = 0
	}
	if limit > len(candidates) {
		limit = len(candidates)
	}
	resp.Results = make([]index.SearchResult, 0, limit)
	for _, c := range candidates[:limit] {
		resp.Results = append(resp.Results, c.result)
	}
	resp.ReturnedCount = len(resp.Results)

	resp.Collection = summarizeCollection(idOrCollection, descriptors)
	resp.PostProcessMs = time.Since(postStart).Milliseconds()
	resp.EmbeddingMs = embeddingMs
	resp.SearchMs = searchMs
	resp.DurationMs = time.Since(started).Milliseconds()

	if err := s.searchRepo.Save(ctx, resp); err != nil {
		// The caller still gets the response; only replay is lost.
		zlog.Error("failed to persist search response",
			zap.String("search_id", resp.SearchID),
			zap.Error(err))
	}

	zlog.Info("search completed",
		zap.String("search_id", resp.SearchID),
		zap.String("target", idOrCollection),
		zap.Int("descriptors", len(descriptors)),
		zap.Int("skipped", len(resp.Diagnostics)),
		zap.Int("returned", resp.ReturnedCount),
		zap.Int64("duration_ms", resp.DurationMs))
	return resp, nil
}

// scoreDescriptor brute-force scores the descriptor's raw embedding set
// against the query vector. Records whose dimensionality does not match
// the query are skipped, not fatal. The scan checks for cancellation every
// scoreCheckInterval records.
const scoreCheckInterval = 1024

func (s *searchServiceImpl) scoreDescriptor(ctx context.Context, d *index.IndexDescriptor, queryVec []float32, threshold float64, minChars, baseOrder int) ([]candidate, error) {
	set, err := s.embRepo.Load(ctx, d.DocumentID, d.EmbeddingID)
	if err != nil {
		return nil, err
	}

	filename := d.DocumentFilename
	if filename == "" {
		filename = index.DocumentFilenameFromID(d.DocumentID)
	}

	var out []candidate
	for i, rec := range set.Embeddings {
		if i%scoreCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec.Vector) != len(queryVec) {
			continue
		}
		sim := index.CosineSimilarity(rec.Vector, queryVec)
		if sim < threshold || utf8.RuneCountInString(rec.Text) < minChars {
			continue
		}

		md := map[string]any{
			"documentId":       d.DocumentID,
			"documentFilename": filename,
			"indexId":          d.IndexID,
		}
		for k, v := range rec.Metadata {
			md[k] = v
		}
		out = append(out, candidate{
			result: index.SearchResult{Text: rec.Text, Similarity: sim, Metadata: md},
			order:  baseOrder + len(out),
		})
	}
	return out, nil
}

// summarizeCollection reports the participating documents, providers and
// backends across all resolved descriptors, including the skipped ones.
func summarizeCollection(name string, descriptors []*index.IndexDescriptor) index.CollectionInfo {
	info := index.CollectionInfo{Name: name}
	seenDoc := map[string]bool{}
	seenFile := map[string]bool{}
	seenProvider := map[string]bool{}
	seenDB := map[string]bool{}
	for _, d := range descriptors {
		if !seenDoc[d.DocumentID] {
			seenDoc[d.DocumentID] = true
			info.DocumentIDs = append(info.DocumentIDs, d.DocumentID)
		}
		filename := d.DocumentFilename
		if filename == "" {
			filename = index.DocumentFilenameFromID(d.DocumentID)
		}
		if filename != "" && !seenFile[filename] {
			seenFile[filename] = true
			info.DocumentFilenames = append(info.DocumentFilenames, filename)
		}
		if d.Provider != "" && !seenProvider[d.Provider] {
			seenProvider[d.Provider] = true
			info.Providers = append(info.Providers, d.Provider)
		}
		db := d.VectorDB.String()
		if !seenDB[db] {
			seenDB[db] = true
			info.VectorDBs = append(info.VectorDBs, db)
		}
	}
	return info
}

func (s *searchServiceImpl) History(ctx context.Context, limit int) ([]*index.SearchResponse, error) {
	return s.searchRepo.List(ctx, limit)
}
