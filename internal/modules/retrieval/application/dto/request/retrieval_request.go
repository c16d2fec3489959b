package request

// TextUnitPayload is one pre-chunked unit handed over by an external
// parsing pipeline.
type TextUnitPayload struct {
	Text     string         `json:"text" binding:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateEmbeddingsRequest embeds either prepared text units or raw text
// (chunked server-side) for one document.
type CreateEmbeddingsRequest struct {
	DocumentID string            `json:"document_id"`
	Filename   string            `json:"filename"`
	Text       string            `json:"text,omitempty"`
	TextUnits  []TextUnitPayload `json:"text_units,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	Model      string            `json:"model,omitempty"`
}

type DeleteEmbeddingsRequest struct {
	EmbeddingID string `json:"embedding_id" binding:"required"`
}

type CreateIndexRequest struct {
	DocumentID     string `json:"document_id" binding:"required"`
	EmbeddingID    string `json:"embedding_id" binding:"required"`
	VectorDB       string `json:"vector_db,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
	IndexName      string `json:"index_name,omitempty"`
	Version        string `json:"version,omitempty"`
}

type UpdateIndexVersionRequest struct {
	IndexID string `json:"index_id" binding:"required"`
	Version string `json:"version" binding:"required"`
}

type DeleteIndexRequest struct {
	IndexID string `json:"index_id" binding:"required"`
}

// SearchRequest queries a single index id or a collection name.
type SearchRequest struct {
	IndexID string `json:"index_id" binding:"required"` // index id or collection name
	Query   string `json:"query" binding:"required"`
	// TopK bounds the final merged list. Omitted means the default (5);
	// an explicit 0 returns an empty result list.
	TopK                *int    `json:"top_k,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	MinChars            int     `json:"min_chars,omitempty"`
}
