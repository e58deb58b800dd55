// Package synthesizer produces grounded answers for RAG mode by prompting
// an LLM with the retrieved chunks as numbered sources.
package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

// maxContextChars bounds the assembled source context so oversized chunk
// sets cannot blow the model's input window.
const maxContextChars = 12000

// Service drives answer synthesis through a langchaingo model.
type Service struct {
	model       llms.Model
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// New builds a provider-backed synthesizer from configuration.
func New(cfg *config.LLMConfig) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: llm config is required", core.ErrInvalidConfig)
	}
	model, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(cfg, model), nil
}

// Wrap builds a service around an existing model. Tests pass fakes.
func Wrap(cfg *config.LLMConfig, model llms.Model) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		model:       model,
		timeout:     timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Synthesize answers the query from the retrieved chunks. The returned text
// never replaces the chunk list; callers report both.
func (s *Service) Synthesize(ctx context.Context, query string, results []retriever.Result) (string, error) {
	if len(results) == 0 {
		return "", fail(ctx, &core.SynthesisError{
			Kind: core.SynthesisMalformed,
			Err:  errors.New("no supporting chunks to answer from"),
		})
	}
	prompt := buildPrompt(query, results)
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	answer, err := llms.GenerateFromSinglePrompt(callCtx, s.model, prompt,
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		return "", fail(ctx, classify(err))
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fail(ctx, &core.SynthesisError{
			Kind: core.SynthesisMalformed,
			Err:  errors.New("model returned an empty completion"),
		})
	}
	logger.FromContext(ctx).With(
		"sources", len(results),
		"duration", time.Since(start),
	).Debug("Answer synthesized")
	return answer, nil
}

// buildPrompt lays the retrieved chunks out as numbered sources so the model
// can cite them.
func buildPrompt(query string, results []retriever.Result) string {
	var ctx strings.Builder
	for i, r := range results {
		header := fmt.Sprintf("[%d] %s (%s)\n", i+1, r.Title, r.SourcePath)
		if ctx.Len()+len(header)+len(r.Content) > maxContextChars {
			break
		}
		ctx.WriteString(header)
		ctx.WriteString(r.Content)
		ctx.WriteString("\n\n")
	}
	return fmt.Sprintf(
		"You are a helpful assistant. Using only the numbered sources below, "+
			"answer the question concisely. Cite sources by number where relevant. "+
			"If the sources do not contain the answer, say so.\n\n"+
			"Question: %s\n\nSources:\n%s",
		query, strings.TrimSpace(ctx.String()),
	)
}

func fail(ctx context.Context, err *core.SynthesisError) error {
	recordFailure(ctx, string(err.Kind))
	return err
}

func classify(err error) *core.SynthesisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.SynthesisError{Kind: core.SynthesisUnavailable, Err: err}
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") {
		return &core.SynthesisError{Kind: core.SynthesisRateLimited, Err: err}
	}
	return &core.SynthesisError{Kind: core.SynthesisUnavailable, Err: err}
}
