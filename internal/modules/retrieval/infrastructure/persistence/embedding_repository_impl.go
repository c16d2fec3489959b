package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"go.uber.org/zap"
)

// embeddingRepositoryImpl stores one JSON artifact per embedding set under
// a flat directory. Lookups scan the directory; the filename convention
// ({documentId}_{timestamp}_{provider}_embeddings.json) narrows the scan
// before bodies are decoded.
type embeddingRepositoryImpl struct {
	dir string
}

func NewEmbeddingRepository(dir string) repository.EmbeddingRepository {
	return &embeddingRepositoryImpl{dir: dir}
}

var _ repository.EmbeddingRepository = (*embeddingRepositoryImpl)(nil)

func (r *embeddingRepositoryImpl) Save(ctx context.Context, set *index.EmbeddingSet) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", xerr.NewBackend("create embeddings dir: %v", err)
	}
	path := filepath.Join(r.dir, index.EmbeddingFileName(set))
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", xerr.NewBackend("encode embedding set %s: %v", set.EmbeddingID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", xerr.NewBackend("write embedding set %s: %v", set.EmbeddingID, err)
	}
	return path, nil
}

func (r *embeddingRepositoryImpl) Load(ctx context.Context, documentID, embeddingID string) (*index.EmbeddingSet, error) {
	path, err := r.locate(documentID, embeddingID)
	if err != nil {
		return nil, err
	}
	return decodeEmbeddingSet(path)
}

func (r *embeddingRepositoryImpl) Locate(ctx context.Context, documentID, embeddingID string) (string, error) {
	return r.locate(documentID, embeddingID)
}

// locate returns the artifact path for (documentID, embeddingID). Files
// prefixed with the document id are checked first; a full scan covers
// artifacts whose document id does not match the filename prefix.
func (r *embeddingRepositoryImpl) locate(documentID, embeddingID string) (string, error) {
	names, err := r.artifactNames()
	if err != nil {
		return "", err
	}

	ordered := make([]string, 0, len(names))
	if documentID != "" {
		for _, n := range names {
			if strings.HasPrefix(n, documentID+"_") {
				ordered = append(ordered, n)
			}
		}
	}
	for _, n := range names {
		if documentID == "" || !strings.HasPrefix(n, documentID+"_") {
			ordered = append(ordered, n)
		}
	}

	for _, n := range ordered {
		path := filepath.Join(r.dir, n)
		set, err := decodeEmbeddingSet(path)
		if err != nil {
			zlog.Warn("skipping unreadable embedding artifact", zap.String("file", n), zap.Error(err))
			continue
		}
		if set.EmbeddingID == embeddingID {
			return path, nil
		}
	}
	return "", xerr.NewNotFound("embedding set %s not found for document %s", embeddingID, documentID)
}

func (r *embeddingRepositoryImpl) Delete(ctx context.Context, embeddingID string) error {
	path, err := r.locate("", embeddingID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return xerr.NewBackend("remove embedding set %s: %v", embeddingID, err)
	}
	return nil
}

func (r *embeddingRepositoryImpl) List(ctx context.Context, documentID string) ([]*index.EmbeddingSet, error) {
	names, err := r.artifactNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]*index.EmbeddingSet, 0, len(names))
	for _, n := range names {
		set, err := decodeEmbeddingSet(filepath.Join(r.dir, n))
		if err != nil {
			zlog.Warn("skipping unreadable embedding artifact", zap.String("file", n), zap.Error(err))
			continue
		}
		if documentID != "" && set.DocumentID != documentID {
			continue
		}
		// Header only; callers use Load for the vectors.
		set.Embeddings = nil
		out = append(out, set)
	}
	return out, nil
}

func (r *embeddingRepositoryImpl) artifactNames() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerr.NewBackend("scan embeddings dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_embeddings.json") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func decodeEmbeddingSet(path string) (*index.EmbeddingSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set index.EmbeddingSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return &set, nil
}
