package synthesizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/pkg/config"
)

// fakeModel returns a canned completion and records the prompt it saw.
type fakeModel struct {
	completion string
	err        error
	prompt     string
}

func (f *fakeModel) GenerateContent(
	_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.completion}},
	}, nil
}

func (f *fakeModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return f.completion, f.err
}

func llmConfig() *config.LLMConfig {
	return &config.LLMConfig{
		Provider:    "openai",
		Model:       "test-llm",
		Timeout:     5 * time.Second,
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

func sampleResults() []retriever.Result {
	return []retriever.Result{
		{Rank: 1, Title: "Guide", SourcePath: "/docs/guide.pdf", Content: "The retention period is 30 days."},
		{Rank: 2, Title: "FAQ", SourcePath: "/docs/faq.html", Content: "Backups run nightly."},
	}
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("Should include the query and numbered sources in the prompt", func(t *testing.T) {
		model := &fakeModel{completion: "30 days [1]."}
		svc := Wrap(llmConfig(), model)
		answer, err := svc.Synthesize(ctx, "what is the retention period?", sampleResults())
		require.NoError(t, err)
		assert.Equal(t, "30 days [1].", answer)
		assert.Contains(t, model.prompt, "what is the retention period?")
		assert.Contains(t, model.prompt, "[1] Guide (/docs/guide.pdf)")
		assert.Contains(t, model.prompt, "[2] FAQ (/docs/faq.html)")
		assert.Contains(t, model.prompt, "The retention period is 30 days.")
	})
	t.Run("Should refuse to answer without supporting chunks", func(t *testing.T) {
		svc := Wrap(llmConfig(), &fakeModel{completion: "anything"})
		_, err := svc.Synthesize(ctx, "question", nil)
		require.Error(t, err)
		var synthErr *core.SynthesisError
		require.True(t, errors.As(err, &synthErr))
		assert.Equal(t, core.SynthesisMalformed, synthErr.Kind)
	})
	t.Run("Should classify rate limit failures", func(t *testing.T) {
		svc := Wrap(llmConfig(), &fakeModel{err: errors.New("429: rate limit exceeded")})
		_, err := svc.Synthesize(ctx, "question", sampleResults())
		require.Error(t, err)
		var synthErr *core.SynthesisError
		require.True(t, errors.As(err, &synthErr))
		assert.Equal(t, core.SynthesisRateLimited, synthErr.Kind)
	})
	t.Run("Should classify other provider failures as unavailable", func(t *testing.T) {
		svc := Wrap(llmConfig(), &fakeModel{err: errors.New("connection refused")})
		_, err := svc.Synthesize(ctx, "question", sampleResults())
		require.Error(t, err)
		var synthErr *core.SynthesisError
		require.True(t, errors.As(err, &synthErr))
		assert.Equal(t, core.SynthesisUnavailable, synthErr.Kind)
	})
	t.Run("Should treat an empty completion as malformed", func(t *testing.T) {
		svc := Wrap(llmConfig(), &fakeModel{completion: "   "})
		_, err := svc.Synthesize(ctx, "question", sampleResults())
		require.Error(t, err)
		var synthErr *core.SynthesisError
		require.True(t, errors.As(err, &synthErr))
		assert.Equal(t, core.SynthesisMalformed, synthErr.Kind)
	})
	t.Run("Should cap the assembled context size", func(t *testing.T) {
		model := &fakeModel{completion: "answer"}
		svc := Wrap(llmConfig(), model)
		big := strings.Repeat("x", maxContextChars-100)
		results := []retriever.Result{
			{Rank: 1, Title: "Big", SourcePath: "/big.txt", Content: big},
			{Rank: 2, Title: "Dropped", SourcePath: "/dropped.txt", Content: "should not appear"},
		}
		_, err := svc.Synthesize(ctx, "q", results)
		require.NoError(t, err)
		assert.Contains(t, model.prompt, "[1] Big (/big.txt)")
		assert.NotContains(t, model.prompt, "should not appear")
	})
}
