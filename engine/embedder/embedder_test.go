package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/pkg/config"
)

// fakeEmbedder returns deterministic vectors and counts provider calls.
type fakeEmbedder struct {
	dimension int
	calls     int
	fail      error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	v := make([]float32, f.dimension)
	for i := range v {
		v[i] = float32(len(text)+i) / 100
	}
	return v
}

func testConfig(dimension, cacheSize int) *config.EmbedderConfig {
	return &config.EmbedderConfig{
		Provider:  "openai",
		Model:     "test-embedding-model",
		Dimension: dimension,
		BatchSize: 8,
		CacheSize: cacheSize,
	}
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Should embed a batch with one vector per input", func(t *testing.T) {
		fake := &fakeEmbedder{dimension: 4}
		adapter, err := Wrap(testConfig(4, 0), fake)
		require.NoError(t, err)
		vectors, err := adapter.EmbedDocuments(ctx, []string{"alpha", "beta", "gamma"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		for _, v := range vectors {
			assert.Len(t, v, 4)
		}
	})
	t.Run("Should serve repeated texts from the cache", func(t *testing.T) {
		fake := &fakeEmbedder{dimension: 4}
		adapter, err := Wrap(testConfig(4, 16), fake)
		require.NoError(t, err)
		first, err := adapter.EmbedQuery(ctx, "repeated text")
		require.NoError(t, err)
		second, err := adapter.EmbedQuery(ctx, "repeated text")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, fake.calls)
	})
	t.Run("Should deduplicate within a batch before calling the provider", func(t *testing.T) {
		fake := &fakeEmbedder{dimension: 4}
		adapter, err := Wrap(testConfig(4, 16), fake)
		require.NoError(t, err)
		vectors, err := adapter.EmbedDocuments(ctx, []string{"same", "same", "other"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, vectors[0], vectors[1])
		assert.Equal(t, 1, fake.calls)
	})
	t.Run("Should reject vectors that do not match the deployed dimension", func(t *testing.T) {
		fake := &fakeEmbedder{dimension: 3}
		adapter, err := Wrap(testConfig(4, 0), fake)
		require.NoError(t, err)
		_, err = adapter.EmbedQuery(ctx, "query")
		require.Error(t, err)
		var mismatch *core.DimensionMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, 4, mismatch.Want)
		assert.Equal(t, 3, mismatch.Got)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
	t.Run("Should wrap provider failures with the model name", func(t *testing.T) {
		fake := &fakeEmbedder{dimension: 4, fail: errors.New("rate limit")}
		adapter, err := Wrap(testConfig(4, 0), fake)
		require.NoError(t, err)
		_, err = adapter.EmbedDocuments(ctx, []string{"text"})
		require.Error(t, err)
		var embedErr *core.EmbedError
		require.True(t, errors.As(err, &embedErr))
		assert.Equal(t, "test-embedding-model", embedErr.Model)
	})
	t.Run("Should reject a non-positive dimension", func(t *testing.T) {
		_, err := Wrap(testConfig(0, 0), &fakeEmbedder{dimension: 4})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
}
