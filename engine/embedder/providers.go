package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/pkg/config"
)

func buildProvider(ctx context.Context, cfg *config.EmbedderConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return buildOpenAI(cfg)
	case "googleai":
		return buildGoogleAI(ctx, cfg)
	case "ollama":
		return buildOllama(cfg)
	default:
		return nil, fmt.Errorf(
			"%w: embedding provider %q is not supported", core.ErrInvalidConfig, cfg.Provider,
		)
	}
}

func buildOpenAI(cfg *config.EmbedderConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai embedding client: %w", err)
	}
	return newEmbedder(client, cfg)
}

func buildGoogleAI(ctx context.Context, cfg *config.EmbedderConfig) (embeddings.Embedder, error) {
	opts := []googleai.Option{googleai.WithDefaultEmbeddingModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.APIKey))
	}
	client, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init googleai embedding client: %w", err)
	}
	return newEmbedder(client, cfg)
}

func buildOllama(cfg *config.EmbedderConfig) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedding client: %w", err)
	}
	return newEmbedder(client, cfg)
}

func newEmbedder(client embeddings.EmbedderClient, cfg *config.EmbedderConfig) (embeddings.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(
		client,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	)
	if err != nil {
		return nil, fmt.Errorf("construct embedder: %w", err)
	}
	return embedder, nil
}
