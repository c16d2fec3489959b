package embedding

import (
	"context"

	"VectorLink/internal/modules/retrieval/domain/repository"
)

// MockEmbedder produces deterministic text-hash-seeded unit vectors. Used
// for the mock provider and in tests; the same text always maps to the
// same vector.
type MockEmbedder struct {
	Dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 16
	}
	return &MockEmbedder{Dim: dim}
}

var _ repository.Embedder = (*MockEmbedder)(nil)

func (m *MockEmbedder) EmbedStrings(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, t := range texts {
		result[i] = DeterministicVector(t, m.Dim)
	}
	return result, nil
}
