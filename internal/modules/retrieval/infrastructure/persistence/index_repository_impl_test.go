package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/pkg/xerr"
)

func sampleDescriptor(indexID, documentID, collection string) *index.IndexDescriptor {
	return &index.IndexDescriptor{
		DocumentID:     documentID,
		IndexID:        indexID,
		Timestamp:      "20250101_120000",
		VectorDB:       index.KindFlatCosine,
		CollectionName: collection,
		IndexName:      "idx_" + indexID,
		Version:        "1.0",
		Dimensions:     2,
		TotalVectors:   1,
		EmbeddingID:    "emb_" + indexID,
	}
}

func TestIndexRepositorySaveAndFind(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()
	d := sampleDescriptor("idx_aaa", "doc_20250101_120000", "doc")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := repo.Find(ctx, "idx_aaa")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found == nil || found.IndexID != "idx_aaa" {
		t.Fatalf("Find returned %+v", found)
	}

	// Unknown ids resolve to nil without an error.
	found, err = repo.Find(ctx, "idx_nope")
	if err != nil {
		t.Fatalf("Find unknown: %v", err)
	}
	if found != nil {
		t.Errorf("Find unknown returned %+v, want nil", found)
	}
}

func TestIndexRepositoryFindByFilenameFragment(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()
	d := sampleDescriptor("idx_bbb", "report.pdf_20250101_120000", "report.pdf")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Descriptor filenames embed the document id; a fragment of the name
	// still resolves.
	found, err := repo.Find(ctx, "report.pdf_20250101")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found == nil || found.IndexID != "idx_bbb" {
		t.Fatalf("fragment lookup returned %+v", found)
	}
}

func TestIndexRepositoryResolveCollectionOrID(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()

	// Two descriptors in the same collection, one of them whose collection
	// name equals another descriptor's index id to prove id wins.
	a := sampleDescriptor("idx_a", "doc_a_20250101_120000", "shared")
	b := sampleDescriptor("idx_b", "doc_b_20250101_120000", "shared")
	c := sampleDescriptor("shared", "doc_c_20250101_120000", "other")
	for _, d := range []*index.IndexDescriptor{a, b, c} {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("Save %s: %v", d.IndexID, err)
		}
	}

	// Exact index id match takes priority over the collection of the same
	// name.
	got, err := repo.ResolveCollectionOrID(ctx, "shared")
	if err != nil {
		t.Fatalf("ResolveCollectionOrID: %v", err)
	}
	if len(got) != 1 || got[0].IndexID != "shared" {
		t.Fatalf("id priority violated: %+v", got)
	}

	got, err = repo.ResolveCollectionOrID(ctx, "idx_a")
	if err != nil {
		t.Fatalf("ResolveCollectionOrID(idx_a): %v", err)
	}
	if len(got) != 1 || got[0].IndexID != "idx_a" {
		t.Fatalf("id lookup returned %+v", got)
	}

	// No descriptor has collection "other" as an index id, so the token
	// resolves to every member of that collection.
	got, err = repo.ResolveCollectionOrID(ctx, "other")
	if err != nil {
		t.Fatalf("ResolveCollectionOrID(other): %v", err)
	}
	if len(got) != 1 || got[0].IndexID != "shared" {
		t.Fatalf("collection lookup returned %+v", got)
	}

	if _, err := repo.ResolveCollectionOrID(ctx, "no_such_thing"); !xerr.IsNotFound(err) {
		t.Errorf("unknown token: got %v, want not found", err)
	}
}

func TestIndexRepositoryResolveWholeCollection(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()
	a := sampleDescriptor("idx_a", "doc_a_20250101_120000", "shared")
	b := sampleDescriptor("idx_b", "doc_b_20250101_120000", "shared")
	for _, d := range []*index.IndexDescriptor{a, b} {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := repo.ResolveCollectionOrID(ctx, "shared")
	if err != nil {
		t.Fatalf("ResolveCollectionOrID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(got))
	}
}

func TestIndexRepositoryList(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()
	for _, d := range []*index.IndexDescriptor{
		sampleDescriptor("idx_1", "doc_a_20250101_120000", "a"),
		sampleDescriptor("idx_2", "doc_a_20250101_120000", "a"),
		sampleDescriptor("idx_3", "doc_b_20250101_120000", "b"),
	} {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d descriptors, want 3", len(all))
	}

	docA, err := repo.List(ctx, "doc_a_20250101_120000")
	if err != nil {
		t.Fatalf("List(doc_a): %v", err)
	}
	if len(docA) != 2 {
		t.Errorf("got %d descriptors for doc_a, want 2", len(docA))
	}
}

func TestIndexRepositoryDelete(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()
	d := sampleDescriptor("idx_del", "doc_20250101_120000", "doc")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Delete(ctx, "idx_del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "idx_del"); !xerr.IsNotFound(err) {
		t.Errorf("second delete: got %v, want not found", err)
	}
}

func TestIndexRepositoryVersionHistoryResolvesNewest(t *testing.T) {
	repo := NewIndexRepository(t.TempDir())
	ctx := context.Background()

	v1 := sampleDescriptor("idx_ver", "doc_20250101_120000", "doc")
	v2 := sampleDescriptor("idx_ver", "doc_20250101_120000", "doc")
	v2.Timestamp = "20250102_090000"
	v2.Version = "2.0"
	for _, d := range []*index.IndexDescriptor{v1, v2} {
		if err := repo.Save(ctx, d); err != nil {
			t.Fatalf("Save v%s: %v", d.Version, err)
		}
	}

	found, err := repo.Find(ctx, "idx_ver")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found == nil || found.Version != "2.0" {
		t.Fatalf("Find returned %+v, want version 2.0", found)
	}

	got, err := repo.ResolveCollectionOrID(ctx, "idx_ver")
	if err != nil {
		t.Fatalf("ResolveCollectionOrID: %v", err)
	}
	if len(got) != 1 || got[0].Version != "2.0" {
		t.Fatalf("resolved %+v, want the single newest version", got)
	}
}

func TestIndexRepositorySkipsMalformedDescriptors(t *testing.T) {
	dir := t.TempDir()
	repo := NewIndexRepository(dir)
	ctx := context.Background()
	if err := repo.Save(ctx, sampleDescriptor("idx_ok", "doc_20250101_120000", "doc")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken_v1.0.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d descriptors, want 1 (malformed file skipped)", len(all))
	}
}

func TestIndexRepositoryCacheSurvivesRescan(t *testing.T) {
	dir := t.TempDir()
	repo := NewIndexRepository(dir)
	ctx := context.Background()
	d := sampleDescriptor("idx_cache", "doc_20250101_120000", "doc")
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Repeated lookups hit the (name, modtime, size) cache; removing the
	// file out of band must still be noticed by the next scan.
	for i := 0; i < 3; i++ {
		if found, err := repo.Find(ctx, "idx_cache"); err != nil || found == nil {
			t.Fatalf("Find round %d: %v %v", i, found, err)
		}
	}
	if err := os.Remove(filepath.Join(dir, index.DescriptorFileName(d))); err != nil {
		t.Fatal(err)
	}
	found, err := repo.Find(ctx, "idx_cache")
	if err != nil {
		t.Fatalf("Find after removal: %v", err)
	}
	if found != nil {
		t.Errorf("stale cache entry returned %+v", found)
	}
}
