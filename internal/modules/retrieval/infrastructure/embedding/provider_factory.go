package embedding

import (
	"context"
	"os"
	"strings"
	"time"

	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
	"VectorLink/pkg/xerr"

	arkEmbed "github.com/cloudwego/eino-ext/components/embedding/ark"
	dashscopeEmbed "github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

// Factory binds (provider, model) pairs to eino embedding backends. The
// provider set is closed: adding a backend means adding a case here, not
// falling through a string match.
type Factory struct {
	conf *config.Config
}

func NewFactory(conf *config.Config) *Factory {
	return &Factory{conf: conf}
}

var _ repository.EmbedderFactory = (*Factory)(nil)

// einoAdapter narrows an eino embedder to the domain Embedder interface.
type einoAdapter struct {
	impl embedding.Embedder
}

func (a einoAdapter) EmbedStrings(ctx context.Context, texts []string) ([][]float64, error) {
	return a.impl.EmbedStrings(ctx, texts)
}

func (f *Factory) Embedder(ctx context.Context, provider, model string) (repository.Embedder, error) {
	ec := f.conf.AIConfig.Embedding
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if provider == "" {
		provider = strings.ToLower(strings.TrimSpace(ec.Provider))
	}
	if model == "" {
		model = strings.TrimSpace(ec.Model)
	}

	timeout := 30 * time.Second
	if ec.TimeoutSeconds > 0 {
		timeout = time.Duration(ec.TimeoutSeconds) * time.Second
	}

	switch provider {
	case "", index.ProviderMock:
		dim := f.Dimensions(index.ProviderMock, model)
		return NewMockEmbedder(dim), nil

	case index.ProviderOpenAI:
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("OPENAI_API_KEY"))
		baseURL := firstNonEmpty(ec.BaseURL, os.Getenv("OPENAI_BASE_URL"))
		if model == "" {
			model = strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
		}
		if apiKey == "" || model == "" {
			return nil, xerr.NewValidation("openai embedding missing apiKey/model")
		}
		dim := f.Dimensions(index.ProviderOpenAI, model)
		em, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    baseURL,
			Timeout:    timeout,
			Dimensions: &dim,
		})
		if err != nil {
			return nil, xerr.NewBackend("create openai embedder: %v", err)
		}
		return einoAdapter{impl: em}, nil

	case index.ProviderArk:
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("ARK_API_KEY"))
		baseURL := firstNonEmpty(ec.BaseURL, os.Getenv("ARK_BASE_URL"))
		if model == "" {
			model = strings.TrimSpace(os.Getenv("ARK_EMBED_MODEL"))
		}
		if apiKey == "" || model == "" {
			return nil, xerr.NewValidation("ark embedding missing apiKey/model")
		}
		em, err := arkEmbed.NewEmbedder(ctx, &arkEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: baseURL,
		})
		if err != nil {
			return nil, xerr.NewBackend("create ark embedder: %v", err)
		}
		return einoAdapter{impl: em}, nil

	case index.ProviderDashscope:
		apiKey := firstNonEmpty(ec.APIKey, os.Getenv("DASHSCOPE_API_KEY"))
		if model == "" {
			model = strings.TrimSpace(os.Getenv("DASHSCOPE_EMBED_MODEL"))
		}
		if apiKey == "" || model == "" {
			return nil, xerr.NewValidation("dashscope embedding missing apiKey/model")
		}
		dim := f.Dimensions(index.ProviderDashscope, model)
		em, err := dashscopeEmbed.NewEmbedder(ctx, &dashscopeEmbed.EmbeddingConfig{
			APIKey:     apiKey,
			Model:      model,
			Dimensions: &dim,
		})
		if err != nil {
			return nil, xerr.NewBackend("create dashscope embedder: %v", err)
		}
		return einoAdapter{impl: em}, nil

	case index.ProviderOllama:
		// Ollama speaks the OpenAI embeddings protocol on its local port.
		baseURL := firstNonEmpty(ec.BaseURL, os.Getenv("OLLAMA_BASE_URL"), "http://localhost:11434/v1")
		if model == "" {
			return nil, xerr.NewValidation("ollama embedding missing model")
		}
		// Colon-qualified names (e.g. ollama:nomic-embed-text) carry the
		// provider tag; strip it before talking to the server.
		if i := strings.Index(model, ":"); i >= 0 && strings.EqualFold(model[:i], index.ProviderOllama) {
			model = model[i+1:]
		}
		em, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:  "ollama",
			Model:   model,
			BaseURL: baseURL,
			Timeout: timeout,
		})
		if err != nil {
			return nil, xerr.NewBackend("create ollama embedder: %v", err)
		}
		return einoAdapter{impl: em}, nil

	default:
		return nil, xerr.NewUnsupported("unknown embedding provider: %s", provider)
	}
}

// Dimensions reports the expected vector dimensionality for a provider and
// model. Config wins; otherwise known model families are looked up and the
// remainder falls back to 1536.
func (f *Factory) Dimensions(provider, model string) int {
	if d := f.conf.AIConfig.Embedding.Dimensions; d > 0 {
		return d
	}
	switch {
	case strings.Contains(model, "text-embedding-3-large"):
		return 3072
	case strings.Contains(model, "text-embedding-3-small"),
		strings.Contains(model, "text-embedding-ada"):
		return 1536
	case strings.Contains(model, "text-embedding-v3"),
		strings.Contains(model, "text-embedding-v4"):
		return 1024
	case strings.Contains(model, "nomic-embed-text"):
		return 768
	}
	return 1536
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
