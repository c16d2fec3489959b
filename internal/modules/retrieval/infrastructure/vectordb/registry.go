package vectordb

import (
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"
)

// Registry dispatches on the closed set of vector-db kinds.
type Registry struct {
	backends map[index.VectorDBKind]repository.VectorIndexBackend
}

func NewRegistry(backends ...repository.VectorIndexBackend) *Registry {
	m := make(map[index.VectorDBKind]repository.VectorIndexBackend, len(backends))
	for _, b := range backends {
		m[b.Kind()] = b
	}
	return &Registry{backends: m}
}

// Backend returns the implementation for a kind; unknown or unconfigured
// kinds are Unsupported.
func (r *Registry) Backend(kind index.VectorDBKind) (repository.VectorIndexBackend, error) {
	b, ok := r.backends[kind]
	if !ok {
		return nil, xerr.NewUnsupported("no backend configured for vector db kind %q", kind)
	}
	return b, nil
}
