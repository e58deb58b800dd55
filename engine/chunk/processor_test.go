package chunk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadabshaukat/searchd/engine/core"
)

func TestNewProcessor(t *testing.T) {
	t.Run("Should reject a non-positive size", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 0, Overlap: 0})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
	t.Run("Should reject a negative overlap", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 100, Overlap: -1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
	t.Run("Should reject overlap equal to size instead of clamping", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 100, Overlap: 100})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	})
}

func TestProcessorProcess(t *testing.T) {
	processor, err := NewProcessor(Settings{
		Size:              40,
		Overlap:           8,
		NormalizeNewlines: true,
	})
	require.NoError(t, err)

	t.Run("Should return nothing for whitespace-only input", func(t *testing.T) {
		assert.Empty(t, processor.Process("   \n\t  "))
	})
	t.Run("Should index chunks contiguously from zero", func(t *testing.T) {
		chunks := processor.Process(loremText())
		require.NotEmpty(t, chunks)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.NotEmpty(t, c.Content)
			assert.Equal(t, len([]rune(c.Content)), c.Chars)
		}
	})
	t.Run("Should normalize carriage returns before splitting", func(t *testing.T) {
		chunks := processor.Process("line one\r\nline two\rline three")
		require.Len(t, chunks, 1)
		assert.Equal(t, "line one\nline two\nline three", chunks[0].Content)
	})
	t.Run("Should produce identical output for identical input", func(t *testing.T) {
		first := processor.Process(loremText())
		second := processor.Process(loremText())
		assert.Equal(t, first, second)
	})
}
