package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

const (
	milvusVectorField = "vector"
	milvusMaxVarChar  = 65535
)

// MilvusStore is the remote-ann backend. Connections are per-call scoped:
// every operation dials, works under the configured timeout and closes the
// handle on all exit paths.
type MilvusStore struct {
	conf config.MilvusConfig
}

func NewMilvusStore(conf config.MilvusConfig) *MilvusStore {
	return &MilvusStore{conf: conf}
}

var _ repository.VectorIndexBackend = (*MilvusStore)(nil)

func (s *MilvusStore) Kind() index.VectorDBKind { return index.KindRemoteANN }

func (s *MilvusStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.conf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *MilvusStore) connect(ctx context.Context) (mclient.Client, error) {
	cli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  s.conf.Address,
		Username: s.conf.Username,
		Password: s.conf.Password,
		DBName:   s.conf.DBName,
	})
	if err != nil {
		return nil, classifyMilvusErr("connect to milvus", err)
	}
	return cli, nil
}

func (s *MilvusStore) metricType() entity.MetricType {
	switch s.conf.MetricType {
	case "IP":
		return entity.IP
	case "L2":
		return entity.L2
	default:
		return entity.COSINE
	}
}

// BuildIndex declares the collection schema with the embedding
// dimensionality, bulk-inserts the vectors, requests AUTOINDEX
// construction and loads the collection for querying.
func (s *MilvusStore) BuildIndex(ctx context.Context, d *index.IndexDescriptor, set *index.EmbeddingSet) (map[string]any, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cli, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	collection := index.SanitizeName(d.CollectionName)

	has, err := cli.HasCollection(ctx, collection)
	if err != nil {
		return nil, classifyMilvusErr("check collection", err)
	}
	if !has {
		schema := entity.NewSchema().
			WithName(collection).
			WithDescription("VectorLink embedding collection").
			WithField(entity.NewField().
				WithName("id").
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(128).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName("index_id").
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(128)).
			WithField(entity.NewField().
				WithName(milvusVectorField).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(set.Dimensions))).
			WithField(entity.NewField().
				WithName("text").
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(milvusMaxVarChar)).
			WithField(entity.NewField().
				WithName("metadata").
				WithDataType(entity.FieldTypeJSON))
		if err := cli.CreateCollection(ctx, schema, 1); err != nil {
			return nil, classifyMilvusErr("create collection", err)
		}
	}

	ids := make([]string, 0, len(set.Embeddings))
	indexIDs := make([]string, 0, len(set.Embeddings))
	vectors := make([][]float32, 0, len(set.Embeddings))
	texts := make([]string, 0, len(set.Embeddings))
	metas := make([][]byte, 0, len(set.Embeddings))
	for i, rec := range set.Embeddings {
		if len(rec.Vector) != set.Dimensions {
			continue
		}
		meta := []byte("{}")
		if rec.Metadata != nil {
			if bs, err := json.Marshal(rec.Metadata); err == nil {
				meta = bs
			}
		}
		ids = append(ids, fmt.Sprintf("%s_%d", d.IndexID, i))
		indexIDs = append(indexIDs, d.IndexID)
		vectors = append(vectors, rec.Vector)
		texts = append(texts, rec.Text)
		metas = append(metas, meta)
	}
	if len(ids) == 0 {
		return nil, xerr.NewValidation("embedding set %s has no vectors matching dim %d", set.EmbeddingID, set.Dimensions)
	}

	_, err = cli.Insert(
		ctx,
		collection,
		"",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("index_id", indexIDs),
		entity.NewColumnFloatVector(milvusVectorField, set.Dimensions, vectors),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnJSONBytes("metadata", metas),
	)
	if err != nil {
		return nil, classifyMilvusErr("insert vectors", err)
	}
	if err := cli.Flush(ctx, collection, false); err != nil {
		return nil, classifyMilvusErr("flush collection", err)
	}

	idx, err := entity.NewIndexAUTOINDEX(s.metricType())
	if err != nil {
		return nil, xerr.NewBackend("create AUTOINDEX definition: %v", err)
	}
	if err := cli.CreateIndex(ctx, collection, milvusVectorField, idx, false); err != nil {
		return nil, classifyMilvusErr("create index", err)
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, classifyMilvusErr("load collection", err)
	}

	return map[string]any{
		"address":    s.conf.Address,
		"collection": collection,
		"metric":     string(s.metricType()),
		"inserted":   len(ids),
	}, nil
}

// DropIndex drops the remote collection. Callers treat remote failures as
// best-effort: local descriptor deletion proceeds regardless.
func (s *MilvusStore) DropIndex(ctx context.Context, d *index.IndexDescriptor) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cli, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	collection := index.SanitizeName(d.CollectionName)
	if err := cli.DropCollection(ctx, collection); err != nil {
		return classifyMilvusErr("drop collection", err)
	}
	return nil
}

// RemoteHit is one ANN search result from the remote service.
type RemoteHit struct {
	ID           string
	Score        float32
	Text         string
	MetadataJSON string
}

// Search issues an ANN query against a loaded collection.
func (s *MilvusStore) Search(ctx context.Context, collectionName string, vector []float32, topK int) ([]RemoteHit, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cli, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, xerr.NewBackend("create search param: %v", err)
	}
	res, err := cli.Search(
		ctx,
		index.SanitizeName(collectionName),
		nil,
		"",
		[]string{"text", "metadata"},
		[]entity.Vector{entity.FloatVector(vector)},
		milvusVectorField,
		s.metricType(),
		topK,
		sp,
	)
	if err != nil {
		return nil, classifyMilvusErr("search collection", err)
	}
	if len(res) == 0 {
		return []RemoteHit{}, nil
	}

	sr := res[0]
	if sr.Err != nil {
		return nil, classifyMilvusErr("search collection", sr.Err)
	}
	textCol := columnByName(sr.Fields, "text")
	metaCol := columnByName(sr.Fields, "metadata")

	hits := make([]RemoteHit, 0, sr.ResultCount)
	for i := 0; i < sr.ResultCount; i++ {
		id, _ := sr.IDs.GetAsString(i)
		h := RemoteHit{ID: id}
		if i < len(sr.Scores) {
			h.Score = sr.Scores[i]
		}
		if textCol != nil {
			v, _ := textCol.GetAsString(i)
			h.Text = v
		}
		if metaCol != nil {
			v, _ := metaCol.Get(i)
			if bs, ok := v.([]byte); ok {
				h.MetadataJSON = string(bs)
			}
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func columnByName(cols mclient.ResultSet, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

// classifyMilvusErr separates retryable timeouts from backend failures.
func classifyMilvusErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		zlog.Warn("milvus operation timed out", zap.String("op", op), zap.Error(err))
		return xerr.NewTimeout("%s: %v", op, err)
	}
	return xerr.NewBackend("%s: %v", op, err)
}
