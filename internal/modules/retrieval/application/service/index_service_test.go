package service

import (
	"context"
	"strings"
	"testing"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/internal/modules/retrieval/infrastructure/persistence"
	"VectorLink/internal/modules/retrieval/infrastructure/vectordb"
	"VectorLink/pkg/xerr"
)

type indexFixture struct {
	embRepo repository.EmbeddingRepository
	idxRepo repository.IndexRepository
	svc     IndexService
}

func newIndexFixture(t *testing.T) *indexFixture {
	t.Helper()
	embRepo := persistence.NewEmbeddingRepository(t.TempDir())
	idxRepo := persistence.NewIndexRepository(t.TempDir())
	registry := vectordb.NewRegistry(vectordb.NewFlatStore(t.TempDir()))
	return &indexFixture{
		embRepo: embRepo,
		idxRepo: idxRepo,
		svc:     NewIndexService(testServiceConfig(), embRepo, idxRepo, registry),
	}
}

func (f *indexFixture) saveSet(t *testing.T, documentID, embeddingID string, vectors [][]float32) {
	t.Helper()
	records := make([]index.EmbeddingRecord, len(vectors))
	for i, v := range vectors {
		records[i] = index.EmbeddingRecord{Vector: v, Text: "text"}
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	set := &index.EmbeddingSet{
		DocumentID:      documentID,
		EmbeddingID:     embeddingID,
		Provider:        "mock",
		Dimensions:      dim,
		Timestamp:       "20250101_120000",
		TotalEmbeddings: len(records),
		Embeddings:      records,
	}
	if _, err := f.embRepo.Save(context.Background(), set); err != nil {
		t.Fatalf("save embedding set: %v", err)
	}
}

func TestIndexServiceBuild(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.saveSet(t, "report.pdf_20250101_120000", "emb_build", [][]float32{{1, 0}, {0, 1}})

	d, err := f.svc.Build(ctx, "report.pdf_20250101_120000", "emb_build", "", "", "", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(d.IndexID, "idx_") {
		t.Errorf("index id = %q", d.IndexID)
	}
	if d.VectorDB != index.KindFlatCosine {
		t.Errorf("kind = %q, want the configured default", d.VectorDB)
	}
	if d.CollectionName != "report.pdf" {
		t.Errorf("derived collection = %q, want report.pdf", d.CollectionName)
	}
	if d.Version != "1.0" || d.TotalVectors != 2 || d.Dimensions != 2 {
		t.Errorf("descriptor = %+v", d)
	}
	if d.IndexInfo["path"] == nil {
		t.Error("backend indexInfo missing from descriptor")
	}

	found, err := f.svc.Find(ctx, d.IndexID)
	if err != nil {
		t.Fatalf("Find after build: %v", err)
	}
	if found.EmbeddingID != "emb_build" {
		t.Errorf("cataloged descriptor = %+v", found)
	}
}

func TestIndexServiceBuildUnknownKind(t *testing.T) {
	f := newIndexFixture(t)
	f.saveSet(t, "doc_20250101_120000", "emb_k", [][]float32{{1, 0}})
	_, err := f.svc.Build(context.Background(), "doc_20250101_120000", "emb_k", "hnsw", "", "", "")
	if !xerr.IsUnsupported(err) {
		t.Errorf("got %v, want unsupported", err)
	}
}

func TestIndexServiceBuildMissingEmbeddings(t *testing.T) {
	f := newIndexFixture(t)
	_, err := f.svc.Build(context.Background(), "doc", "emb_missing", "", "", "", "")
	if !xerr.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestIndexServiceBuildEmptySet(t *testing.T) {
	f := newIndexFixture(t)
	f.saveSet(t, "doc_20250101_120000", "emb_empty", nil)
	_, err := f.svc.Build(context.Background(), "doc_20250101_120000", "emb_empty", "", "", "", "")
	if !xerr.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

// failingBackend simulates a backend whose build always fails.
type failingBackend struct{}

func (failingBackend) Kind() index.VectorDBKind { return index.KindFlatCosine }

func (failingBackend) BuildIndex(ctx context.Context, d *index.IndexDescriptor, set *index.EmbeddingSet) (map[string]any, error) {
	return nil, xerr.NewBackend("backend down")
}

func (failingBackend) DropIndex(ctx context.Context, d *index.IndexDescriptor) error { return nil }

func TestIndexServiceBuildFailureLeavesNoDescriptor(t *testing.T) {
	embRepo := persistence.NewEmbeddingRepository(t.TempDir())
	idxRepo := persistence.NewIndexRepository(t.TempDir())
	svc := NewIndexService(testServiceConfig(), embRepo, idxRepo, vectordb.NewRegistry(failingBackend{}))

	set := &index.EmbeddingSet{
		DocumentID:  "doc_20250101_120000",
		EmbeddingID: "emb_fail",
		Provider:    "mock",
		Dimensions:  1,
		Timestamp:   "20250101_120000",
		Embeddings:  []index.EmbeddingRecord{{Vector: []float32{1}, Text: "x"}},
	}
	if _, err := embRepo.Save(context.Background(), set); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Build(context.Background(), "doc_20250101_120000", "emb_fail", "", "", "", ""); !xerr.IsBackend(err) {
		t.Fatalf("got %v, want backend error", err)
	}
	left, err := idxRepo.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("failed build left %d descriptors in the catalog", len(left))
	}
}

func TestIndexServiceUpdate(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.saveSet(t, "doc_20250101_120000", "emb_upd", [][]float32{{1, 0}})

	built, err := f.svc.Build(ctx, "doc_20250101_120000", "emb_upd", "", "", "", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	updated, err := f.svc.Update(ctx, built.IndexID, "2.0")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != "2.0" || updated.IndexID != built.IndexID {
		t.Errorf("updated = %+v", updated)
	}

	found, err := f.svc.Find(ctx, built.IndexID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Version != "2.0" {
		t.Errorf("Find returned version %q, want the newest", found.Version)
	}
	// History is append-only: both versions stay cataloged.
	all, err := f.svc.List(ctx, "doc_20250101_120000")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("catalog holds %d files, want 2", len(all))
	}
}

func TestIndexServiceUpdateValidation(t *testing.T) {
	f := newIndexFixture(t)
	if _, err := f.svc.Update(context.Background(), "idx_missing", "2.0"); !xerr.IsNotFound(err) {
		t.Errorf("unknown index: got %v, want not found", err)
	}

	f.saveSet(t, "doc_20250101_120000", "emb_v", [][]float32{{1}})
	built, err := f.svc.Build(context.Background(), "doc_20250101_120000", "emb_v", "", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(context.Background(), built.IndexID, "  "); !xerr.IsValidation(err) {
		t.Errorf("blank version: got %v, want validation error", err)
	}
}

func TestIndexServiceDelete(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.saveSet(t, "doc_20250101_120000", "emb_del", [][]float32{{1, 0}})
	built, err := f.svc.Build(ctx, "doc_20250101_120000", "emb_del", "", "", "", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := f.svc.Delete(ctx, built.IndexID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Find(ctx, built.IndexID); !xerr.IsNotFound(err) {
		t.Errorf("got %v after delete, want not found", err)
	}
	if err := f.svc.Delete(ctx, built.IndexID); !xerr.IsNotFound(err) {
		t.Errorf("second delete: got %v, want not found", err)
	}
}
