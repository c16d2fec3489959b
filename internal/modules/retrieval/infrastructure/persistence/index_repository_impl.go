package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"go.uber.org/zap"
)

// indexRepositoryImpl catalogs index descriptors as flat JSON files. The
// directory scan stays authoritative; decoded descriptors are cached per
// (name, modtime, size) so repeated resolutions do not re-parse unchanged
// files.
type indexRepositoryImpl struct {
	dir string

	mu    sync.Mutex
	cache map[string]cachedDescriptor
}

type cachedDescriptor struct {
	modUnixNano int64
	size        int64
	desc        *index.IndexDescriptor
}

func NewIndexRepository(dir string) repository.IndexRepository {
	return &indexRepositoryImpl{dir: dir, cache: make(map[string]cachedDescriptor)}
}

var _ repository.IndexRepository = (*indexRepositoryImpl)(nil)

func (r *indexRepositoryImpl) Save(ctx context.Context, d *index.IndexDescriptor) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return xerr.NewBackend("create indexes dir: %v", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return xerr.NewBackend("encode index descriptor %s: %v", d.IndexID, err)
	}
	path := filepath.Join(r.dir, index.DescriptorFileName(d))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerr.NewBackend("write index descriptor %s: %v", d.IndexID, err)
	}
	return nil
}

type catalogEntry struct {
	name string
	desc *index.IndexDescriptor
}

func (r *indexRepositoryImpl) scan() ([]catalogEntry, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerr.NewBackend("scan indexes dir: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(entries))
	out := make([]catalogEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		seen[name] = true

		info, err := e.Info()
		if err != nil {
			continue
		}
		if c, ok := r.cache[name]; ok && c.modUnixNano == info.ModTime().UnixNano() && c.size == info.Size() {
			out = append(out, catalogEntry{name: name, desc: c.desc})
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			zlog.Warn("skipping unreadable index descriptor", zap.String("file", name), zap.Error(err))
			continue
		}
		var d index.IndexDescriptor
		if err := json.Unmarshal(data, &d); err != nil || d.IndexID == "" {
			zlog.Warn("skipping malformed index descriptor", zap.String("file", name), zap.Error(err))
			continue
		}
		r.cache[name] = cachedDescriptor{modUnixNano: info.ModTime().UnixNano(), size: info.Size(), desc: &d}
		out = append(out, catalogEntry{name: name, desc: &d})
	}
	for name := range r.cache {
		if !seen[name] {
			delete(r.cache, name)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func (r *indexRepositoryImpl) Find(ctx context.Context, indexID string) (*index.IndexDescriptor, error) {
	entries, err := r.scan()
	if err != nil {
		return nil, err
	}
	// Version updates append a new file for the same index id; filenames
	// embed the timestamp, so the last match in name order is the newest.
	var found *index.IndexDescriptor
	for _, e := range entries {
		if e.desc.IndexID == indexID {
			found = e.desc
		}
	}
	if found != nil {
		return found, nil
	}
	// Legacy artifacts were addressed by fragments of their filename.
	for _, e := range entries {
		if strings.Contains(e.name, indexID) {
			found = e.desc
		}
	}
	return found, nil
}

// dedupeNewest collapses version history: one descriptor per index id, the
// newest file winning, first-appearance order preserved.
func dedupeNewest(in []*index.IndexDescriptor) []*index.IndexDescriptor {
	latest := make(map[string]*index.IndexDescriptor, len(in))
	order := make([]string, 0, len(in))
	for _, d := range in {
		if _, ok := latest[d.IndexID]; !ok {
			order = append(order, d.IndexID)
		}
		latest[d.IndexID] = d
	}
	out := make([]*index.IndexDescriptor, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

func (r *indexRepositoryImpl) ResolveCollectionOrID(ctx context.Context, token string) ([]*index.IndexDescriptor, error) {
	entries, err := r.scan()
	if err != nil {
		return nil, err
	}

	var byID []*index.IndexDescriptor
	for _, e := range entries {
		if e.desc.IndexID == token {
			byID = append(byID, e.desc)
		}
	}
	if len(byID) > 0 {
		return dedupeNewest(byID), nil
	}

	var byCollection []*index.IndexDescriptor
	for _, e := range entries {
		if e.desc.CollectionName == token {
			byCollection = append(byCollection, e.desc)
		}
	}
	if len(byCollection) > 0 {
		return dedupeNewest(byCollection), nil
	}

	if d, err := r.Find(ctx, token); err != nil {
		return nil, err
	} else if d != nil {
		return []*index.IndexDescriptor{d}, nil
	}
	return nil, xerr.NewNotFound("no index or collection matches %q", token)
}

func (r *indexRepositoryImpl) List(ctx context.Context, documentID string) ([]*index.IndexDescriptor, error) {
	entries, err := r.scan()
	if err != nil {
		return nil, err
	}
	out := make([]*index.IndexDescriptor, 0, len(entries))
	for _, e := range entries {
		if documentID != "" && e.desc.DocumentID != documentID {
			continue
		}
		out = append(out, e.desc)
	}
	return out, nil
}

func (r *indexRepositoryImpl) Delete(ctx context.Context, indexID string) error {
	entries, err := r.scan()
	if err != nil {
		return err
	}
	// All versions of the descriptor go together.
	removed := false
	for _, e := range entries {
		if e.desc.IndexID == indexID {
			if err := os.Remove(filepath.Join(r.dir, e.name)); err != nil {
				return xerr.NewBackend("remove index descriptor %s: %v", indexID, err)
			}
			removed = true
		}
	}
	if !removed {
		return xerr.NewNotFound("index %s not found", indexID)
	}
	return nil
}
