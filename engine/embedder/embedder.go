// Package embedder adapts langchaingo embedding providers to the engine,
// enforcing the deployed vector dimension and caching repeated texts.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/pkg/config"
)

// Adapter wraps a langchaingo embedder, validating every returned vector
// against the configured dimension. A single adapter instance is shared for
// the process lifetime.
type Adapter struct {
	provider  string
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

// New constructs a provider-backed adapter from configuration.
func New(ctx context.Context, cfg *config.EmbedderConfig) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: embedder config is required", core.ErrInvalidConfig)
	}
	impl, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wrap(cfg, impl)
}

// Wrap builds an adapter around an existing embedder implementation. Tests
// use it to substitute deterministic fakes.
func Wrap(cfg *config.EmbedderConfig, impl embeddings.Embedder) (*Adapter, error) {
	if impl == nil {
		return nil, fmt.Errorf("%w: embedder implementation is required", core.ErrInvalidConfig)
	}
	return wrap(cfg, impl)
}

func wrap(cfg *config.EmbedderConfig, impl embeddings.Embedder) (*Adapter, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: embedder model is required", core.ErrInvalidConfig)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: embedder dimension must be greater than zero", core.ErrInvalidConfig)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	a := &Adapter{
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: batchSize,
		impl:      impl,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: init embedding cache: %w", core.ErrInvalidConfig, err)
		}
		a.cache = cache
	}
	return a, nil
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int { return a.dimension }

// BatchSize returns the preferred batch size for document embedding.
func (a *Adapter) BatchSize() int { return a.batchSize }

// Model returns the embedding model identifier stored alongside vectors.
func (a *Adapter) Model() string { return a.model }

// EmbedDocuments embeds a batch of texts, serving repeats from the cache.
// The result always has one vector per input text, in order.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missing := make(map[string][]int)
	for i, text := range texts {
		if vector, ok := a.lookup(text); ok {
			results[i] = vector
			continue
		}
		missing[text] = append(missing[text], i)
	}
	if len(missing) == 0 {
		return results, nil
	}
	pending := make([]string, 0, len(missing))
	for text := range missing {
		pending = append(pending, text)
	}
	embedded, err := a.impl.EmbedDocuments(ctx, pending)
	if err != nil {
		return nil, &core.EmbedError{Model: a.model, Err: err}
	}
	if len(embedded) != len(pending) {
		return nil, &core.EmbedError{
			Model: a.model,
			Err:   fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(pending)),
		}
	}
	for i, vector := range embedded {
		if err := a.checkDimension(vector); err != nil {
			return nil, err
		}
		for _, idx := range missing[pending[i]] {
			results[idx] = cloneVector(vector)
		}
		a.store(pending[i], vector)
	}
	return results, nil
}

// EmbedQuery embeds a single text.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := a.lookup(text); ok {
		return vector, nil
	}
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &core.EmbedError{Model: a.model, Err: err}
	}
	if err := a.checkDimension(vector); err != nil {
		return nil, err
	}
	a.store(text, vector)
	return cloneVector(vector), nil
}

func (a *Adapter) checkDimension(vector []float32) error {
	if len(vector) != a.dimension {
		return &core.DimensionMismatchError{Want: a.dimension, Got: len(vector)}
	}
	return nil
}

func (a *Adapter) lookup(text string) ([]float32, bool) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache == nil {
		return nil, false
	}
	vector, ok := a.cache.Get(cacheKey(text))
	if !ok {
		return nil, false
	}
	return cloneVector(vector), true
}

func (a *Adapter) store(text string, vector []float32) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache == nil || len(vector) == 0 {
		return
	}
	a.cache.Add(cacheKey(text), cloneVector(vector))
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
