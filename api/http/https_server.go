package http

import (
	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/application/service"
	"VectorLink/internal/modules/retrieval/infrastructure/chunking"
	"VectorLink/internal/modules/retrieval/infrastructure/embedding"
	"VectorLink/internal/modules/retrieval/infrastructure/persistence"
	"VectorLink/internal/modules/retrieval/infrastructure/provider"
	"VectorLink/internal/modules/retrieval/infrastructure/vectordb"
	retrievalHandler "VectorLink/internal/modules/retrieval/interface/http"
	"VectorLink/pkg/ssl"
	"VectorLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	embRepo := persistence.NewEmbeddingRepository(conf.StorageConfig.EmbeddingsDir)
	idxRepo := persistence.NewIndexRepository(conf.StorageConfig.IndexesDir)
	searchRepo := persistence.NewSearchLogRepository(conf.StorageConfig.SearchesDir)

	factory := embedding.NewFactory(conf)
	resolver := provider.NewResolver(conf, embRepo)

	flatStore := vectordb.NewFlatStore(conf.StorageConfig.IndexesDir)
	sqliteStore, err := vectordb.NewSqliteStore(conf.SqliteConfig.Path, conf.SqliteConfig.Distance)
	if err != nil {
		zlog.Fatal("failed to open sqlite vector store", zap.Error(err))
	}
	milvusStore := vectordb.NewMilvusStore(conf.MilvusConfig)
	backends := vectordb.NewRegistry(flatStore, sqliteStore, milvusStore)

	embSvc := service.NewEmbeddingService(conf, embRepo, factory)
	idxSvc := service.NewIndexService(conf, embRepo, idxRepo, backends)
	searchSvc := service.NewSearchService(idxRepo, embRepo, searchRepo, resolver, embSvc)

	var chunker *chunking.SimpleChunker
	if conf.ChunkingConfig.UseRecursive {
		chunker = chunking.NewRecursiveChunker(conf.ChunkingConfig.ChunkSize, conf.ChunkingConfig.ChunkOverlap)
	} else {
		chunker = chunking.NewSimpleChunker(conf.ChunkingConfig.ChunkSize, conf.ChunkingConfig.ChunkOverlap)
	}

	embH := retrievalHandler.NewEmbeddingHandler(embSvc, chunker)
	idxH := retrievalHandler.NewIndexHandler(idxSvc)
	searchH := retrievalHandler.NewSearchHandler(searchSvc)

	GE.POST("/rag/embeddings/create", embH.Create)
	GE.GET("/rag/embeddings/list", embH.List)
	GE.POST("/rag/embeddings/delete", embH.Delete)
	GE.POST("/rag/index/create", idxH.Create)
	GE.GET("/rag/index/list", idxH.List)
	GE.POST("/rag/index/updateVersion", idxH.UpdateVersion)
	GE.POST("/rag/index/delete", idxH.Delete)
	GE.POST("/rag/search", searchH.Search)
	GE.GET("/rag/search/history", searchH.History)
}
