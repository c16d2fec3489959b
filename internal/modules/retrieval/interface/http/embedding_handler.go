package http

import (
	"strings"
	"time"

	"VectorLink/internal/modules/retrieval/application/dto/request"
	"VectorLink/internal/modules/retrieval/application/dto/respond"
	"VectorLink/internal/modules/retrieval/application/service"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/infrastructure/chunking"
	"VectorLink/pkg/back"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EmbeddingHandler exposes the embedding artifact surface.
type EmbeddingHandler struct {
	embSvc  service.EmbeddingService
	chunker *chunking.SimpleChunker
}

func NewEmbeddingHandler(embSvc service.EmbeddingService, chunker *chunking.SimpleChunker) *EmbeddingHandler {
	return &EmbeddingHandler{embSvc: embSvc, chunker: chunker}
}

// Create handles POST /rag/embeddings/create.
// Accepts either prepared text_units or raw text, which is chunked
// server-side before embedding.
func (h *EmbeddingHandler) Create(c *gin.Context) {
	var req request.CreateEmbeddingsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("create embeddings bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		filename := strings.TrimSpace(req.Filename)
		if filename == "" {
			back.Error(c, xerr.BadRequest, "document_id or filename is required")
			return
		}
		documentID = index.SanitizeName(filename) + "_" + time.Now().Format(index.TimestampLayout)
	}

	units := make([]index.TextUnit, 0, len(req.TextUnits))
	for _, u := range req.TextUnits {
		units = append(units, index.TextUnit{Text: u.Text, Metadata: u.Metadata})
	}
	if len(units) == 0 && strings.TrimSpace(req.Text) != "" {
		chunked, err := h.chunker.ChunkText(c.Request.Context(), req.Text, map[string]any{"filename": req.Filename})
		if err != nil {
			zlog.Error("chunking failed", zap.String("document_id", documentID), zap.Error(err))
			back.Result(c, nil, xerr.NewBackend("chunk document text: %v", err))
			return
		}
		units = chunked
	}

	set, err := h.embSvc.Create(c.Request.Context(), documentID, units, req.Provider, req.Model)
	if err != nil {
		zlog.Error("create embeddings failed", zap.String("document_id", documentID), zap.Error(err))
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.NewEmbeddingSetRespond(set))
}

// List handles GET /rag/embeddings/list?document_id=...
func (h *EmbeddingHandler) List(c *gin.Context) {
	sets, err := h.embSvc.List(c.Request.Context(), c.Query("document_id"))
	if err != nil {
		zlog.Error("list embeddings failed", zap.Error(err))
	}
	back.Result(c, respond.NewEmbeddingSetList(sets), err)
}

// Delete handles POST /rag/embeddings/delete.
func (h *EmbeddingHandler) Delete(c *gin.Context) {
	var req request.DeleteEmbeddingsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("delete embeddings bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.embSvc.Delete(c.Request.Context(), req.EmbeddingID)
	if err != nil {
		zlog.Error("delete embeddings failed", zap.String("embedding_id", req.EmbeddingID), zap.Error(err))
	}
	back.Result(c, gin.H{"embedding_id": req.EmbeddingID}, err)
}
