package chunking

import (
	"context"
	"fmt"
	"sync"

	"VectorLink/internal/modules/retrieval/domain/index"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// SimpleChunker splits raw document text into overlapping text units for
// embedding. The plain mode is a fixed rune window; the recursive mode
// delegates to the eino recursive splitter for separator-aware boundaries.
type SimpleChunker struct {
	ChunkSize    int
	ChunkOverlap int
	useRecursive bool

	initOnce      sync.Once
	initErr       error
	recursiveImpl document.Transformer
}

func NewSimpleChunker(size, overlap int) *SimpleChunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &SimpleChunker{ChunkSize: size, ChunkOverlap: overlap}
}

func NewRecursiveChunker(size, overlap int) *SimpleChunker {
	c := NewSimpleChunker(size, overlap)
	c.useRecursive = true
	return c
}

// Chunk splits text on rune boundaries so multi-byte characters stay
// intact.
func (c *SimpleChunker) Chunk(text string) []string {
	if text == "" {
		return []string{}
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen <= c.ChunkSize {
		return []string{text}
	}

	step := c.ChunkSize - c.ChunkOverlap
	if step <= 0 {
		step = 1
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + c.ChunkSize
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == totalLen {
			break
		}
	}
	return chunks
}

// ChunkText produces embedding-ready text units from one document's raw
// text, tagging every unit with its chunk index.
func (c *SimpleChunker) ChunkText(ctx context.Context, text string, metadata map[string]any) ([]index.TextUnit, error) {
	var parts []string
	if c.useRecursive {
		frags, err := c.recursiveChunk(ctx, text)
		if err != nil {
			return nil, err
		}
		parts = frags
	} else {
		parts = c.Chunk(text)
	}

	units := make([]index.TextUnit, 0, len(parts))
	for i, p := range parts {
		md := map[string]any{"chunk_index": i}
		for k, v := range metadata {
			md[k] = v
		}
		units = append(units, index.TextUnit{Text: p, Metadata: md})
	}
	return units, nil
}

func (c *SimpleChunker) recursiveChunk(ctx context.Context, text string) ([]string, error) {
	c.initOnce.Do(func() {
		impl, err := recursive.NewSplitter(ctx, &recursive.Config{
			ChunkSize:   c.ChunkSize,
			OverlapSize: c.ChunkOverlap,
			Separators:  []string{"\n\n", "\n", ". ", " "},
			LenFunc: func(s string) int {
				return len([]rune(s))
			},
			KeepType: recursive.KeepTypeEnd,
		})
		if err != nil {
			c.initErr = err
			return
		}
		c.recursiveImpl = impl
	})
	if c.initErr != nil {
		return nil, c.initErr
	}
	if c.recursiveImpl == nil {
		return nil, fmt.Errorf("recursive splitter not initialized")
	}

	frags, err := c.recursiveImpl.Transform(ctx, []*schema.Document{{Content: text}})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(frags))
	for _, f := range frags {
		if f == nil {
			continue
		}
		out = append(out, f.Content)
	}
	return out, nil
}
