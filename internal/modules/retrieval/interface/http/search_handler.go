package http

import (
	"strconv"

	"VectorLink/internal/modules/retrieval/application/dto/request"
	"VectorLink/internal/modules/retrieval/application/service"
	"VectorLink/pkg/back"
	"VectorLink/pkg/xerr"
	"VectorLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultTopK = 5

// SearchHandler exposes the semantic search surface.
type SearchHandler struct {
	searchSvc service.SearchService
}

func NewSearchHandler(searchSvc service.SearchService) *SearchHandler {
	return &SearchHandler{searchSvc: searchSvc}
}

// Search handles POST /rag/search. Partial-failure collection searches
// still answer with diagnostics attached, never an error envelope.
func (h *SearchHandler) Search(c *gin.Context) {
	var req request.SearchRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error("search bind error", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	topK := defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	resp, err := h.searchSvc.Search(c.Request.Context(), req.IndexID, req.Query, topK, req.SimilarityThreshold, req.MinChars)
	if err != nil {
		zlog.Error("search failed", zap.String("target", req.IndexID), zap.Error(err))
	}
	back.Result(c, resp, err)
}

// History handles GET /rag/search/history?limit=N.
func (h *SearchHandler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := h.searchSvc.History(c.Request.Context(), limit)
	if err != nil {
		zlog.Error("search history failed", zap.Error(err))
	}
	back.Result(c, logs, err)
}
