package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct joins pieces with their carried prefixes removed.
func reconstruct(pieces []Piece) string {
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Text[p.Overlap:])
	}
	return sb.String()
}

func TestSplit(t *testing.T) {
	t.Run("Should return nothing for empty input", func(t *testing.T) {
		assert.Empty(t, Split("", 100, 10))
	})
	t.Run("Should keep short input as a single piece", func(t *testing.T) {
		pieces := Split("hello world", 100, 10)
		require.Len(t, pieces, 1)
		assert.Equal(t, "hello world", pieces[0].Text)
		assert.Zero(t, pieces[0].Overlap)
	})
	t.Run("Should prefer paragraph breaks over finer separators", func(t *testing.T) {
		text := "first paragraph here\n\nsecond paragraph here\n\nthird one"
		pieces := Split(text, 30, 0)
		require.GreaterOrEqual(t, len(pieces), 2)
		assert.True(t, strings.HasSuffix(pieces[0].Text, "\n\n"))
		assert.Equal(t, text, reconstruct(pieces))
	})
	t.Run("Should hard-slice an oversized token with no separators", func(t *testing.T) {
		token := strings.Repeat("x", 95)
		pieces := Split(token, 30, 0)
		require.Len(t, pieces, 4)
		for i, p := range pieces[:3] {
			assert.Equal(t, 30, utf8.RuneCountInString(p.Text), "piece %d", i)
		}
		assert.Equal(t, 5, utf8.RuneCountInString(pieces[3].Text))
		assert.Equal(t, token, reconstruct(pieces))
	})
	t.Run("Should bound every piece by the configured size", func(t *testing.T) {
		text := loremText()
		for _, size := range []int{32, 64, 128, 512} {
			pieces := Split(text, size, size/5)
			for i, p := range pieces {
				assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), size,
					"size %d piece %d", size, i)
			}
		}
	})
	t.Run("Should reconstruct the input exactly after removing overlaps", func(t *testing.T) {
		inputs := []string{
			"one two three four five six seven eight nine ten",
			"Sentence one. Sentence two. Sentence three. Sentence four.",
			"line1\nline2\nline3\n\npara2 line1\npara2 line2",
			loremText(),
			strings.Repeat("ab", 500),
			"unicode: héllo wörld, приве́т мир, こんにちは世界. " + strings.Repeat("é", 80),
		}
		for _, input := range inputs {
			for _, size := range []int{16, 40, 100} {
				for _, overlap := range []int{0, 5, 15} {
					if overlap >= size {
						continue
					}
					pieces := Split(input, size, overlap)
					assert.Equal(t, input, reconstruct(pieces),
						"size=%d overlap=%d", size, overlap)
				}
			}
		}
	})
	t.Run("Should carry trailing context into the next piece", func(t *testing.T) {
		text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
		pieces := Split(text, 20, 8)
		require.Greater(t, len(pieces), 1)
		for i := 1; i < len(pieces); i++ {
			carried := pieces[i].Text[:pieces[i].Overlap]
			assert.True(t, strings.HasSuffix(pieces[i-1].Text, carried),
				"piece %d carry %q is not a suffix of its predecessor", i, carried)
			assert.LessOrEqual(t, utf8.RuneCountInString(carried), 8)
		}
	})
	t.Run("Should be deterministic across invocations", func(t *testing.T) {
		text := loremText()
		first := Split(text, 64, 12)
		second := Split(text, 64, 12)
		assert.Equal(t, first, second)
	})
}

func loremText() string {
	paragraph := "Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
		"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
		"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris."
	return strings.Join([]string{paragraph, paragraph, paragraph}, "\n\n")
}
