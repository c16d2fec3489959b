package provider

import (
	"context"
	"path/filepath"
	"strings"

	"VectorLink/internal/config"
	"VectorLink/internal/modules/retrieval/domain/index"
	"VectorLink/internal/modules/retrieval/domain/repository"
)

// Resolver recovers which (provider, model) pair produced an index's
// vectors when the catalog entry is missing or inconsistent. Read-only and
// deterministic; the chain below runs in order and the first success wins.
type Resolver struct {
	conf    *config.Config
	embRepo repository.EmbeddingRepository
}

func NewResolver(conf *config.Config, embRepo repository.EmbeddingRepository) *Resolver {
	return &Resolver{conf: conf, embRepo: embRepo}
}

// Resolve attributes a descriptor to a provider and model.
//
//  1. provider/model stored directly on the descriptor
//  2. provider token embedded in the embedding artifact's filename
//  3. provider/model fields in the embedding artifact's body
//  4. model matched against the configured provider→models catalog
//  5. surface-form heuristics on the model identifier
//  6. configured default provider, model string unchanged
func (r *Resolver) Resolve(ctx context.Context, d *index.IndexDescriptor) (string, string) {
	model := strings.TrimSpace(d.EmbeddingModel)

	// 1. Direct descriptor fields.
	if p := strings.ToLower(strings.TrimSpace(d.Provider)); index.KnownProvider(p) {
		return p, model
	}

	// 2. Provider tag in the embedding artifact filename.
	if path, err := r.embRepo.Locate(ctx, d.DocumentID, d.EmbeddingID); err == nil {
		if p := index.ProviderFromEmbeddingFileName(filepath.Base(path)); index.KnownProvider(p) {
			return p, model
		}
	}

	// 3. Provider/model in the artifact body.
	if set, err := r.embRepo.Load(ctx, d.DocumentID, d.EmbeddingID); err == nil {
		p := strings.ToLower(strings.TrimSpace(set.Provider))
		if index.KnownProvider(p) {
			if model == "" {
				model = strings.TrimSpace(set.Model)
			}
			return p, model
		}
	}

	// 4. Configured catalog of provider → model ids.
	if model != "" {
		for p, models := range r.conf.ProviderCatalogConfig.Models {
			for _, m := range models {
				if strings.EqualFold(m, model) {
					return strings.ToLower(p), model
				}
			}
		}
	}

	// 5. Surface form of the model identifier.
	if model != "" {
		if p := heuristicProvider(model); p != "" {
			return p, model
		}
	}

	// 6. Configured default.
	return strings.ToLower(r.conf.ProviderCatalogConfig.DefaultProvider), model
}

// heuristicProvider inspects the model identifier's shape: a known
// "{provider}-" prefix names the provider, a colon-qualified name belongs
// to the local ollama family.
func heuristicProvider(model string) string {
	lower := strings.ToLower(model)
	if i := strings.Index(lower, "-"); i > 0 {
		if p := lower[:i]; index.KnownProvider(p) {
			return p
		}
	}
	if strings.Contains(lower, ":") {
		return index.ProviderOllama
	}
	return ""
}
