package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

// StorageConfig locates the flat-file artifact directories. Every artifact
// is a whole-file write under a freshly generated id, so no locking is
// needed on top of these paths.
type StorageConfig struct {
	EmbeddingsDir string `toml:"embeddingsDir"`
	IndexesDir    string `toml:"indexesDir"`
	SearchesDir   string `toml:"searchesDir"`
}

type AIEmbeddingConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	// AllowDegraded enables the deterministic fallback query vector when the
	// embedding backend is unreachable. Debug aid only.
	AllowDegraded bool `toml:"allowDegraded"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
}

// ProviderCatalogConfig backs model-to-provider attribution when an index
// descriptor carries a model name but no provider.
type ProviderCatalogConfig struct {
	DefaultProvider string              `toml:"defaultProvider"`
	Models          map[string][]string `toml:"models"`
}

type VectorDBConfig struct {
	DefaultKind string `toml:"defaultKind"`
	Metric      string `toml:"metric"`
}

type SqliteConfig struct {
	Path     string `toml:"path"`
	Distance string `toml:"distance"`
}

type MilvusConfig struct {
	Address        string `toml:"address"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	DBName         string `toml:"dbName"`
	MetricType     string `toml:"metricType"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type ChunkingConfig struct {
	ChunkSize    int  `toml:"chunkSize"`
	ChunkOverlap int  `toml:"chunkOverlap"`
	UseRecursive bool `toml:"useRecursive"`
}

type Config struct {
	MainConfig            `toml:"mainConfig"`
	LogConfig             `toml:"logConfig"`
	StorageConfig         `toml:"storageConfig"`
	AIConfig              `toml:"aiConfig"`
	ProviderCatalogConfig `toml:"providerCatalog"`
	VectorDBConfig        `toml:"vectorDbConfig"`
	SqliteConfig          `toml:"sqliteConfig"`
	MilvusConfig          `toml:"milvusConfig"`
	ChunkingConfig        `toml:"chunkingConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := os.Getenv("VECTORLINK_CONFIG")
	if configPath == "" {
		configPath = "configs/config_local.toml"
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("failed to load config file %s: %v, falling back to defaults", configPath, err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		applyDefaults(config)
		_ = LoadConfig()
		applyDefaults(config)
	}
	return config
}

func applyDefaults(c *Config) {
	if c.StorageConfig.EmbeddingsDir == "" {
		c.StorageConfig.EmbeddingsDir = "data/embeddings"
	}
	if c.StorageConfig.IndexesDir == "" {
		c.StorageConfig.IndexesDir = "data/indexes"
	}
	if c.StorageConfig.SearchesDir == "" {
		c.StorageConfig.SearchesDir = "data/searches"
	}
	if c.VectorDBConfig.DefaultKind == "" {
		c.VectorDBConfig.DefaultKind = "flat-cosine"
	}
	if c.VectorDBConfig.Metric == "" {
		c.VectorDBConfig.Metric = "cosine"
	}
	if c.SqliteConfig.Path == "" {
		c.SqliteConfig.Path = "data/vectorlink.db"
	}
	if c.SqliteConfig.Distance == "" {
		c.SqliteConfig.Distance = "cosine"
	}
	if c.ProviderCatalogConfig.DefaultProvider == "" {
		c.ProviderCatalogConfig.DefaultProvider = "openai"
	}
	if c.MilvusConfig.TimeoutSeconds <= 0 {
		c.MilvusConfig.TimeoutSeconds = 30
	}
	if c.ChunkingConfig.ChunkSize <= 0 {
		c.ChunkingConfig.ChunkSize = 500
	}
}
