package http

import (
	"VectorLink/internal/modules/retrieval/application/dto/request"
	"VectorLink/internal/modules/retrieval/application/service"
	"VectorLink/pkg/back"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IndexHandler exposes index build, versioning and catalog operations.
type IndexHandler struct {
	idxSvc service.IndexService
}

func NewIndexHandler(idxSvc service.IndexService) *IndexHandler {
	return &IndexHandler{idxSvc: idxSvc}
}

// Create handles POST /rag/index/create.
func (h *IndexHandler) Create(c *gin.Context) {
	var req request.CreateIndexRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("create index bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	d, err := h.idxSvc.Build(c.Request.Context(), req.DocumentID, req.EmbeddingID, req.VectorDB, req.CollectionName, req.IndexName, req.Version)
	if err != nil {
		zlog.Error("create index failed",
			zap.String("document_id", req.DocumentID),
			zap.String("embedding_id", req.EmbeddingID),
			zap.Error(err))
	}
	back.Result(c, d, err)
}

// List handles GET /rag/index/list?document_id=...
func (h *IndexHandler) List(c *gin.Context) {
	descriptors, err := h.idxSvc.List(c.Request.Context(), c.Query("document_id"))
	if err != nil {
		zlog.Error("list indexes failed", zap.Error(err))
	}
	back.Result(c, descriptors, err)
}

// UpdateVersion handles POST /rag/index/updateVersion.
func (h *IndexHandler) UpdateVersion(c *gin.Context) {
	var req request.UpdateIndexVersionRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("update index bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	d, err := h.idxSvc.Update(c.Request.Context(), req.IndexID, req.Version)
	if err != nil {
		zlog.Error("update index failed", zap.String("index_id", req.IndexID), zap.Error(err))
	}
	back.Result(c, d, err)
}

// Delete handles POST /rag/index/delete.
func (h *IndexHandler) Delete(c *gin.Context) {
	var req request.DeleteIndexRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("delete index bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.idxSvc.Delete(c.Request.Context(), req.IndexID)
	if err != nil {
		zlog.Error("delete index failed", zap.String("index_id", req.IndexID), zap.Error(err))
	}
	back.Result(c, gin.H{"index_id": req.IndexID}, err)
}
