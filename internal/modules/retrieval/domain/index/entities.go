package index

// TimestampLayout is the wall-clock format embedded in artifact ids and
// filenames. Lexicographic order equals chronological order.
const TimestampLayout = "20060102_150405"

// EmbeddingRecord is one embedded text unit. Immutable once written.
type EmbeddingRecord struct {
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Text     string         `json:"text"`
}

// EmbeddingSet is the full output of embedding one document's text units
// with one (provider, model) pair. Read-only after creation; deleted
// explicitly by id.
type EmbeddingSet struct {
	DocumentID      string            `json:"documentId"`
	EmbeddingID     string            `json:"embeddingId"`
	Provider        string            `json:"provider"`
	Model           string            `json:"model"`
	Dimensions      int               `json:"dimensions"`
	Timestamp       string            `json:"timestamp"`
	TotalEmbeddings int               `json:"totalEmbeddings"`
	Embeddings      []EmbeddingRecord `json:"embeddings"`
}

// IndexDescriptor catalogs one built vector index artifact and its
// provenance. Updates write a new descriptor under a bumped version; the
// history is append-only.
type IndexDescriptor struct {
	DocumentID       string         `json:"documentId"`
	DocumentFilename string         `json:"documentFilename,omitempty"`
	IndexID          string         `json:"indexId"`
	Timestamp        string         `json:"timestamp"`
	VectorDB         VectorDBKind   `json:"vectorDb"`
	CollectionName   string         `json:"collectionName"`
	IndexName        string         `json:"indexName"`
	Version          string         `json:"version"`
	Dimensions       int            `json:"dimensions"`
	TotalVectors     int            `json:"totalVectors"`
	EmbeddingID      string         `json:"embeddingId"`
	EmbeddingModel   string         `json:"embeddingModel,omitempty"`
	Provider         string         `json:"provider,omitempty"`
	IndexInfo        map[string]any `json:"indexInfo,omitempty"`
}

// SearchResult is one surviving candidate after threshold and length
// filtering. Similarity is cosine, clamped to [-1,1].
type SearchResult struct {
	Text       string         `json:"text"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchDiagnostic records a per-descriptor failure during a collection
// search. The descriptor's contribution is omitted, never fatal.
type SearchDiagnostic struct {
	IndexID    string `json:"indexId"`
	DocumentID string `json:"documentId,omitempty"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
}

// CollectionInfo summarizes the descriptors that participated in one
// search, including the ones skipped with diagnostics.
type CollectionInfo struct {
	Name              string   `json:"name"`
	DocumentIDs       []string `json:"documentIds"`
	DocumentFilenames []string `json:"documentFilenames"`
	Providers         []string `json:"providers"`
	VectorDBs         []string `json:"vectorDbs"`
}

// SearchResponse is the persisted record of one search call. Never mutated
// after creation.
type SearchResponse struct {
	SearchID            string             `json:"searchId"`
	Query               string             `json:"query"`
	IndexOrCollection   string             `json:"indexOrCollection"`
	TopK                int                `json:"topK"`
	SimilarityThreshold float64            `json:"similarityThreshold"`
	MinChars            int                `json:"minChars"`
	Timestamp           string             `json:"timestamp"`
	Collection          CollectionInfo     `json:"collection"`
	IndexIDs            []string           `json:"indexIds"`
	Diagnostics         []SearchDiagnostic `json:"diagnostics,omitempty"`
	Results             []SearchResult     `json:"results"`
	TotalCandidates     int                `json:"totalCandidates"`
	ReturnedCount       int                `json:"returnedCount"`
	Degraded            bool               `json:"degraded,omitempty"`
	DurationMs          int64              `json:"durationMs"`
	EmbeddingMs         int64              `json:"embeddingMs"`
	SearchMs            int64              `json:"searchMs"`
	PostProcessMs       int64              `json:"postProcessMs"`
}

// TextUnit is one chunk of document text handed over by the chunking
// pipeline, ready for embedding.
type TextUnit struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
