package retriever

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadabshaukat/searchd/engine/store"
)

func hit(id uuid.UUID, score float64) store.Hit {
	return store.Hit{ChunkID: id, Score: score}
}

func TestFuse(t *testing.T) {
	t.Run("Should sum reciprocal ranks across lists", func(t *testing.T) {
		chunk1, chunk2, chunk3, chunk4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		listA := []store.Hit{hit(chunk1, 0.9), hit(chunk2, 0.8), hit(chunk3, 0.7)}
		listB := []store.Hit{hit(chunk2, 1.5), hit(chunk4, 1.2)}
		fused := fuse([][]store.Hit{listA, listB}, 60)
		require.Len(t, fused, 4)
		assert.Equal(t, chunk2, fused[0].ChunkID)
		assert.InDelta(t, 1.0/61+1.0/62, fused[0].Score, 1e-12)
		scores := make(map[uuid.UUID]float64, len(fused))
		for _, f := range fused {
			scores[f.ChunkID] = f.Score
		}
		assert.InDelta(t, 1.0/61, scores[chunk1], 1e-12)
		assert.InDelta(t, 1.0/63, scores[chunk3], 1e-12)
		assert.InDelta(t, 1.0/62, scores[chunk4], 1e-12)
		assert.Greater(t, scores[chunk2], scores[chunk1])
		assert.Greater(t, scores[chunk2], scores[chunk4])
	})
	t.Run("Should break score ties by chunk ID", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		fused := fuse([][]store.Hit{{hit(a, 1)}, {hit(b, 1)}}, 60)
		require.Len(t, fused, 2)
		assert.Equal(t, fused[0].Score, fused[1].Score)
		assert.Less(t, fused[0].ChunkID.String(), fused[1].ChunkID.String())
	})
	t.Run("Should ignore the original path scores entirely", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		// b has a huge raw score but a worse rank in its list.
		fused := fuse([][]store.Hit{{hit(a, 0.001), hit(b, 9999)}}, 60)
		require.Len(t, fused, 2)
		assert.Equal(t, a, fused[0].ChunkID)
	})
	t.Run("Should return nothing for empty input", func(t *testing.T) {
		assert.Empty(t, fuse(nil, 60))
	})
}
