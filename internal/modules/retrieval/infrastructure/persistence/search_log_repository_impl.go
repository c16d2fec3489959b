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

// searchLogRepositoryImpl persists one immutable JSON file per search
// response for replay and audit.
type searchLogRepositoryImpl struct {
	dir string
}

func NewSearchLogRepository(dir string) repository.SearchLogRepository {
	return &searchLogRepositoryImpl{dir: dir}
}

var _ repository.SearchLogRepository = (*searchLogRepositoryImpl)(nil)

func (r *searchLogRepositoryImpl) Save(ctx context.Context, resp *index.SearchResponse) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return xerr.NewBackend("create searches dir: %v", err)
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return xerr.NewBackend("encode search response %s: %v", resp.SearchID, err)
	}
	path := filepath.Join(r.dir, index.SearchFileName(resp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerr.NewBackend("write search response %s: %v", resp.SearchID, err)
	}
	return nil
}

func (r *searchLogRepositoryImpl) List(ctx context.Context, limit int) ([]*index.SearchResponse, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerr.NewBackend("scan searches dir: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "search_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	// Timestamps sort lexicographically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	out := make([]*index.SearchResponse, 0, len(names))
	for _, n := range names {
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(r.dir, n))
		if err != nil {
			zlog.Warn("skipping unreadable search log", zap.String("file", n), zap.Error(err))
			continue
		}
		var resp index.SearchResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			zlog.Warn("skipping malformed search log", zap.String("file", n), zap.Error(err))
			continue
		}
		out = append(out, &resp)
	}
	return out, nil
}
