package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"

	_ "modernc.org/sqlite"
)

// SqliteStore is the document-store backend: a persistent sqlite
// collection per collectionName, keyed by a distance function, holding
// (id, vector, metadata, text) tuples. Vectors ride in BLOBs using the
// shared little-endian f32 encoding.
type SqliteStore struct {
	db       *sql.DB
	distance string
}

// NewSqliteStore opens (or creates) the database at path. Use ":memory:"
// in tests.
func NewSqliteStore(path, distance string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerr.NewBackend("open sqlite store: %v", err)
	}
	if distance == "" {
		distance = "cosine"
	}
	s := &SqliteStore{db: db, distance: distance}
	if err := s.ensureMeta(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var _ repository.VectorIndexBackend = (*SqliteStore)(nil)

func (s *SqliteStore) Kind() index.VectorDBKind { return index.KindDocumentStore }

func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) ensureMeta(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		distance TEXT NOT NULL,
		dimensions INTEGER NOT NULL
	)`)
	if err != nil {
		return xerr.NewBackend("create collections meta table: %v", err)
	}
	return nil
}

func collectionTable(name string) string {
	return "vec_" + index.SanitizeName(name)
}

// openCollection creates the per-collection table if needed and registers
// it in the meta table with its distance function and dimensionality.
func (s *SqliteStore) openCollection(ctx context.Context, name string, dim int) (string, error) {
	table := collectionTable(name)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		index_id TEXT NOT NULL,
		vector BLOB NOT NULL,
		metadata TEXT,
		text TEXT NOT NULL
	)`, table))
	if err != nil {
		return "", xerr.NewBackend("create collection table %s: %v", table, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections(name, distance, dimensions) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET distance = excluded.distance, dimensions = excluded.dimensions`,
		name, s.distance, dim)
	if err != nil {
		return "", xerr.NewBackend("register collection %s: %v", name, err)
	}
	return table, nil
}

func (s *SqliteStore) BuildIndex(ctx context.Context, d *index.IndexDescriptor, set *index.EmbeddingSet) (map[string]any, error) {
	table, err := s.openCollection(ctx, d.CollectionName, set.Dimensions)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, xerr.NewBackend("begin insert tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %q (id, index_id, vector, metadata, text) VALUES (?, ?, ?, ?, ?)`, table))
	if err != nil {
		return nil, xerr.NewBackend("prepare insert: %v", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, rec := range set.Embeddings {
		if len(rec.Vector) != set.Dimensions {
			continue
		}
		meta := "{}"
		if rec.Metadata != nil {
			if bs, err := json.Marshal(rec.Metadata); err == nil {
				meta = string(bs)
			}
		}
		id := fmt.Sprintf("%s_%d", d.IndexID, i)
		if _, err := stmt.ExecContext(ctx, id, d.IndexID, encodeVector(rec.Vector), meta, rec.Text); err != nil {
			return nil, xerr.NewBackend("insert vector %s: %v", id, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return nil, xerr.NewBackend("commit insert tx: %v", err)
	}

	return map[string]any{
		"collection": d.CollectionName,
		"table":      table,
		"distance":   s.distance,
		"inserted":   inserted,
	}, nil
}

// DropIndex removes this index's tuples from its collection table. The
// collection itself stays: other indexes may share it.
func (s *SqliteStore) DropIndex(ctx context.Context, d *index.IndexDescriptor) error {
	table := collectionTable(d.CollectionName)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q WHERE index_id = ?`, table), d.IndexID)
	if err != nil {
		return xerr.NewBackend("delete index %s tuples: %v", d.IndexID, err)
	}
	return nil
}

// DocHit is one scored tuple from a collection scan.
type DocHit struct {
	ID         string
	Text       string
	Metadata   string
	Similarity float64
}

// Search scans a collection's tuples and scores them with cosine
// similarity, exact and unindexed.
func (s *SqliteStore) Search(ctx context.Context, collectionName string, query []float32, topK int) ([]DocHit, error) {
	table := collectionTable(collectionName)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, vector, metadata, text FROM %q`, table))
	if err != nil {
		return nil, xerr.NewBackend("scan collection %s: %v", collectionName, err)
	}
	defer rows.Close()

	var hits []DocHit
	for rows.Next() {
		var (
			id, meta, text string
			blob           []byte
		)
		if err := rows.Scan(&id, &blob, &meta, &text); err != nil {
			return nil, xerr.NewBackend("scan row: %v", err)
		}
		vec, err := decodeVector(blob)
		if err != nil || len(vec) != len(query) {
			continue
		}
		hits = append(hits, DocHit{
			ID:         id,
			Text:       text,
			Metadata:   meta,
			Similarity: index.CosineSimilarity(vec, query),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, xerr.NewBackend("iterate collection %s: %v", collectionName, err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if topK >= 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}
