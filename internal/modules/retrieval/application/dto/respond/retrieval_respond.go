package respond

import "VectorLink/internal/modules/retrieval/domain/index"

// EmbeddingSetRespond is the artifact header: vectors are elided from API
// responses, they only live in the artifact files.
type EmbeddingSetRespond struct {
	DocumentID      string `json:"document_id"`
	EmbeddingID     string `json:"embedding_id"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	Dimensions      int    `json:"dimensions"`
	Timestamp       string `json:"timestamp"`
	TotalEmbeddings int    `json:"total_embeddings"`
}

func NewEmbeddingSetRespond(set *index.EmbeddingSet) *EmbeddingSetRespond {
	return &EmbeddingSetRespond{
		DocumentID:      set.DocumentID,
		EmbeddingID:     set.EmbeddingID,
		Provider:        set.Provider,
		Model:           set.Model,
		Dimensions:      set.Dimensions,
		Timestamp:       set.Timestamp,
		TotalEmbeddings: set.TotalEmbeddings,
	}
}

func NewEmbeddingSetList(sets []*index.EmbeddingSet) []*EmbeddingSetRespond {
	out := make([]*EmbeddingSetRespond, 0, len(sets))
	for _, s := range sets {
		out = append(out, NewEmbeddingSetRespond(s))
	}
	return out
}
