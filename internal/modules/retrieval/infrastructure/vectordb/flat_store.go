package vectordb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"
)

// FlatStore is the in-process flat-cosine backend. Vectors are unit
// normalized at build time and written to one binary file per index with a
// JSON sidecar header; search is an exact scan, so with cosine metric the
// dot product against a normalized query is the similarity itself.
type FlatStore struct {
	baseDir string
}

func NewFlatStore(baseDir string) *FlatStore {
	return &FlatStore{baseDir: baseDir}
}

var _ repository.VectorIndexBackend = (*FlatStore)(nil)

// flatHeader is the sidecar describing the binary vector file.
type flatHeader struct {
	Dimensions   int      `json:"dimensions"`
	TotalVectors int      `json:"totalVectors"`
	Metric       string   `json:"metric"`
	Texts        []string `json:"texts"`
}

func (s *FlatStore) Kind() index.VectorDBKind { return index.KindFlatCosine }

func (s *FlatStore) indexPath(d *index.IndexDescriptor) string {
	return filepath.Join(s.baseDir, "flat", index.SanitizeName(d.CollectionName), index.SanitizeName(d.IndexName)+".vec")
}

func (s *FlatStore) BuildIndex(ctx context.Context, d *index.IndexDescriptor, set *index.EmbeddingSet) (map[string]any, error) {
	path := s.indexPath(d)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, xerr.NewBackend("create flat index dir: %v", err)
	}

	vectors := make([][]float32, 0, len(set.Embeddings))
	texts := make([]string, 0, len(set.Embeddings))
	for _, rec := range set.Embeddings {
		if len(rec.Vector) != set.Dimensions {
			// Mismatched records are skipped, not fatal.
			continue
		}
		vectors = append(vectors, index.Normalize(rec.Vector))
		texts = append(texts, rec.Text)
	}

	blob, err := encodeVectors(vectors, set.Dimensions)
	if err != nil {
		return nil, xerr.NewBackend("encode flat index: %v", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return nil, xerr.NewBackend("write flat index: %v", err)
	}

	header := flatHeader{
		Dimensions:   set.Dimensions,
		TotalVectors: len(vectors),
		Metric:       "cosine",
		Texts:        texts,
	}
	headerBytes, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return nil, xerr.NewBackend("encode flat index header: %v", err)
	}
	if err := os.WriteFile(path+".json", headerBytes, 0o644); err != nil {
		_ = os.Remove(path)
		return nil, xerr.NewBackend("write flat index header: %v", err)
	}

	return map[string]any{
		"path":   path,
		"metric": "cosine",
	}, nil
}

func (s *FlatStore) DropIndex(ctx context.Context, d *index.IndexDescriptor) error {
	path := s.indexPath(d)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return xerr.NewBackend("remove flat index: %v", err)
	}
	if err := os.Remove(path + ".json"); err != nil && !os.IsNotExist(err) {
		return xerr.NewBackend("remove flat index header: %v", err)
	}
	return nil
}

// FlatHit is one scored entry from a flat index scan.
type FlatHit struct {
	Ordinal    int
	Text       string
	Similarity float64
}

// Search scans the serialized flat index exactly. The query is normalized
// here, so similarity equals the dot product against the stored unit
// vectors, clamped to [-1,1] by construction.
func (s *FlatStore) Search(d *index.IndexDescriptor, query []float32, topK int) ([]FlatHit, error) {
	path := s.indexPath(d)
	headerBytes, err := os.ReadFile(path + ".json")
	if err != nil {
		return nil, xerr.NewNotFound("flat index header missing for %s: %v", d.IndexID, err)
	}
	var header flatHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, xerr.NewBackend("decode flat index header: %v", err)
	}
	if len(query) != header.Dimensions {
		return nil, xerr.NewValidation("query dim %d does not match index dim %d", len(query), header.Dimensions)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, xerr.NewNotFound("flat index file missing for %s: %v", d.IndexID, err)
	}
	vectors, err := decodeVectors(blob, header.Dimensions)
	if err != nil {
		return nil, xerr.NewBackend("decode flat index: %v", err)
	}

	q := index.Normalize(query)
	hits := make([]FlatHit, 0, len(vectors))
	for i, v := range vectors {
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(q[j])
		}
		if dot > 1 {
			dot = 1
		} else if dot < -1 {
			dot = -1
		}
		text := ""
		if i < len(header.Texts) {
			text = header.Texts[i]
		}
		hits = append(hits, FlatHit{Ordinal: i, Text: text, Similarity: dot})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if topK >= 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}
