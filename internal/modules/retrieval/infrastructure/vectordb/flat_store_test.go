package vectordb

import (
	"context"
	"math"
	"os"
	"sort"
	"testing"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/pkg/xerr"
)

func testSet(vectors [][]float32, dim int) *index.EmbeddingSet {
	records := make([]index.EmbeddingRecord, len(vectors))
	for i, v := range vectors {
		records[i] = index.EmbeddingRecord{Vector: v, Text: string(rune('a' + i))}
	}
	return &index.EmbeddingSet{
		DocumentID:      "doc_20250101_120000",
		EmbeddingID:     "emb_test",
		Provider:        "mock",
		Dimensions:      dim,
		Timestamp:       "20250101_120000",
		TotalEmbeddings: len(records),
		Embeddings:      records,
	}
}

func testDescriptor() *index.IndexDescriptor {
	return &index.IndexDescriptor{
		DocumentID:     "doc_20250101_120000",
		IndexID:        "idx_test",
		VectorDB:       index.KindFlatCosine,
		CollectionName: "doc",
		IndexName:      "idx_flat",
	}
}

func TestFlatStoreBuildAndSearch(t *testing.T) {
	store := NewFlatStore(t.TempDir())
	d := testDescriptor()
	set := testSet([][]float32{
		{1, 0},
		{0.9, 0.43589},
		{0, 1},
	}, 2)

	info, err := store.BuildIndex(context.Background(), d, set)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	path, ok := info["path"].(string)
	if !ok {
		t.Fatal("indexInfo missing path")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index file not written: %v", err)
	}
	if _, err := os.Stat(path + ".json"); err != nil {
		t.Fatalf("index sidecar not written: %v", err)
	}

	hits, err := store.Search(d, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Ordinal != 0 || hits[1].Ordinal != 1 {
		t.Errorf("hit order = [%d %d], want [0 1]", hits[0].Ordinal, hits[1].Ordinal)
	}
	if math.Abs(hits[0].Similarity-1) > 1e-6 {
		t.Errorf("top similarity = %v, want 1", hits[0].Similarity)
	}
}

// The flat artifact is a serialized view of the embedding set; its scoring
// must agree with a direct cosine scan of the raw records.
func TestFlatStoreMatchesBruteForce(t *testing.T) {
	store := NewFlatStore(t.TempDir())
	d := testDescriptor()
	vectors := [][]float32{
		{0.2, 0.7, 0.1},
		{-0.5, 0.5, 0.5},
		{0.9, 0.01, -0.3},
		{0.33, -0.66, 0.1},
		{0.1, 0.1, 0.98},
	}
	set := testSet(vectors, 3)
	if _, err := store.BuildIndex(context.Background(), d, set); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	query := []float32{0.3, 0.4, -0.2}
	hits, err := store.Search(d, query, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != len(vectors) {
		t.Fatalf("got %d hits, want %d", len(hits), len(vectors))
	}

	type scored struct {
		ordinal int
		sim     float64
	}
	brute := make([]scored, len(vectors))
	for i, v := range vectors {
		brute[i] = scored{ordinal: i, sim: index.CosineSimilarity(v, query)}
	}
	sort.SliceStable(brute, func(i, j int) bool { return brute[i].sim > brute[j].sim })

	for i := range hits {
		if hits[i].Ordinal != brute[i].ordinal {
			t.Errorf("rank %d: ordinal %d, brute force %d", i, hits[i].Ordinal, brute[i].ordinal)
		}
		if math.Abs(hits[i].Similarity-brute[i].sim) > 1e-6 {
			t.Errorf("rank %d: similarity %v, brute force %v", i, hits[i].Similarity, brute[i].sim)
		}
	}
}

func TestFlatStoreSkipsMismatchedDimensions(t *testing.T) {
	store := NewFlatStore(t.TempDir())
	d := testDescriptor()
	set := testSet([][]float32{
		{1, 0},
		{1, 2, 3}, // wrong dimensionality, must be skipped
		{0, 1},
	}, 2)

	if _, err := store.BuildIndex(context.Background(), d, set); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	hits, err := store.Search(d, []float32{1, 0}, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2 (mismatched record dropped)", len(hits))
	}
}

func TestFlatStoreSearchValidation(t *testing.T) {
	store := NewFlatStore(t.TempDir())
	d := testDescriptor()
	set := testSet([][]float32{{1, 0}}, 2)
	if _, err := store.BuildIndex(context.Background(), d, set); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	if _, err := store.Search(d, []float32{1, 0, 0}, 1); !xerr.IsValidation(err) {
		t.Errorf("dim mismatch: got %v, want validation error", err)
	}

	missing := testDescriptor()
	missing.IndexName = "never_built"
	if _, err := store.Search(missing, []float32{1, 0}, 1); !xerr.IsNotFound(err) {
		t.Errorf("missing index: got %v, want not found", err)
	}
}

func TestFlatStoreDropIndex(t *testing.T) {
	store := NewFlatStore(t.TempDir())
	d := testDescriptor()
	set := testSet([][]float32{{1, 0}}, 2)
	info, err := store.BuildIndex(context.Background(), d, set)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if err := store.DropIndex(context.Background(), d); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	path := info["path"].(string)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("index file still present after drop")
	}
	// Dropping an already-dropped index is a no-op.
	if err := store.DropIndex(context.Background(), d); err != nil {
		t.Errorf("second DropIndex: %v", err)
	}
}
