// Package retriever executes queries against the store in four modes:
// semantic (vector only), fulltext (lexical only), hybrid (both fused with
// reciprocal ranks) and rag (hybrid plus answer synthesis).
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/store"
	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

// Searcher is the store surface the retriever depends on.
type Searcher interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]store.Hit, error)
	SearchVector(ctx context.Context, vector []float32, limit int) ([]store.Hit, error)
}

// QueryEmbedder turns query text into a vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Synthesizer produces a grounded answer from retrieved chunks.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []Result) (string, error)
}

// Service runs retrieval requests. The synthesizer may be nil, in which
// case RAG mode is rejected rather than silently degraded.
type Service struct {
	searcher    Searcher
	embedder    QueryEmbedder
	synthesizer Synthesizer
	cfg         config.SearchConfig
}

func NewService(searcher Searcher, embedder QueryEmbedder, synthesizer Synthesizer, cfg config.SearchConfig) (*Service, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%w: searcher is required", core.ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: query embedder is required", core.ErrInvalidConfig)
	}
	if cfg.RankConstant <= 0 {
		return nil, fmt.Errorf("%w: rank constant must be greater than zero", core.ErrInvalidConfig)
	}
	if cfg.CandidateMultiplier < 1 {
		cfg.CandidateMultiplier = 1
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = 100
	}
	return &Service{searcher: searcher, embedder: embedder, synthesizer: synthesizer, cfg: cfg}, nil
}

// Search dispatches a request to its mode. A non-positive TopK is a caller
// error in every mode; an oversized one is capped, not rejected.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query text is required", core.ErrInvalidInput)
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	if req.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be greater than zero", core.ErrInvalidInput)
	}
	topK := req.TopK
	if topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}
	start := time.Now()
	resp, err := s.dispatch(ctx, mode, query, topK)
	recordQuery(ctx, string(mode), time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		recordEmpty(ctx, string(mode))
	}
	logger.FromContext(ctx).With(
		"mode", mode,
		"top_k", topK,
		"results", len(resp.Results),
		"duration", time.Since(start),
	).Debug("Search completed")
	return resp, nil
}

func (s *Service) dispatch(ctx context.Context, mode Mode, query string, topK int) (*Response, error) {
	switch mode {
	case ModeSemantic:
		hits, err := s.semantic(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, Results: toResults(hits, topK)}, nil
	case ModeFulltext:
		hits, err := s.searcher.SearchLexical(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, Results: toResults(hits, topK)}, nil
	case ModeHybrid:
		hits, err := s.hybrid(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		return &Response{Mode: mode, Results: toResults(hits, topK)}, nil
	case ModeRAG:
		return s.rag(ctx, query, topK)
	default:
		return nil, fmt.Errorf("%w: unknown search mode %q", core.ErrInvalidInput, mode)
	}
}

func (s *Service) semantic(ctx context.Context, query string, limit int) ([]store.Hit, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.searcher.SearchVector(ctx, vector, limit)
}

// hybrid runs both paths in parallel over an expanded candidate pool and
// fuses them. When exactly one path fails, its results are dropped and the
// other's ranking stands; only a double failure is an error.
func (s *Service) hybrid(ctx context.Context, query string, topK int) ([]store.Hit, error) {
	candidates := topK * s.cfg.CandidateMultiplier
	var lexical, vector []store.Hit
	var lexicalErr, vectorErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexical, lexicalErr = s.searcher.SearchLexical(gctx, query, candidates)
		return nil
	})
	g.Go(func() error {
		vector, vectorErr = s.semantic(gctx, query, candidates)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if lexicalErr != nil && vectorErr != nil {
		return nil, fmt.Errorf("hybrid search: lexical: %w; vector: %w", lexicalErr, vectorErr)
	}
	if lexicalErr != nil {
		logger.FromContext(ctx).With("error", lexicalErr).Warn("Lexical path failed, using vector results only")
		return vector, nil
	}
	if vectorErr != nil {
		logger.FromContext(ctx).With("error", vectorErr).Warn("Vector path failed, using lexical results only")
		return lexical, nil
	}
	return fuse([][]store.Hit{lexical, vector}, s.cfg.RankConstant), nil
}

func (s *Service) rag(ctx context.Context, query string, topK int) (*Response, error) {
	if s.synthesizer == nil {
		return nil, &core.SynthesisError{
			Kind: core.SynthesisUnavailable,
			Err:  fmt.Errorf("no synthesizer configured"),
		}
	}
	hits, err := s.hybrid(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	results := toResults(hits, topK)
	answer, err := s.synthesizer.Synthesize(ctx, query, results)
	if err != nil {
		// Provenance survives a broken LLM: the caller gets the retrieved
		// sources with the failure marked instead of an error.
		logger.FromContext(ctx).With("error", err).Warn("Synthesis failed, returning sources only")
		return &Response{
			Mode:                 ModeRAG,
			Results:              results,
			SynthesisUnavailable: true,
			SynthesisFailure:     synthesisKind(err),
		}, nil
	}
	return &Response{Mode: ModeRAG, Results: results, Answer: answer}, nil
}

func synthesisKind(err error) string {
	var synthErr *core.SynthesisError
	if errors.As(err, &synthErr) {
		return string(synthErr.Kind)
	}
	return string(core.SynthesisUnavailable)
}

func toResults(hits []store.Hit, topK int) []Result {
	if len(hits) > topK {
		hits = hits[:topK]
	}
	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			ChunkIndex: hit.ChunkIndex,
			Content:    hit.Content,
			SourcePath: hit.SourcePath,
			Title:      hit.Title,
			Score:      hit.Score,
			Rank:       i + 1,
		}
	}
	return results
}
