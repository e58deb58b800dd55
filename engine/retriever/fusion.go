package retriever

import (
	"sort"

	"github.com/google/uuid"

	"github.com/shadabshaukat/searchd/engine/store"
)

// fuse merges ranked hit lists with reciprocal rank fusion: each appearance
// of a chunk at 1-based rank r contributes 1/(k + r) to its fused score.
// Ties break on chunk ID so the ordering is fully deterministic.
func fuse(lists [][]store.Hit, k int) []store.Hit {
	scores := make(map[uuid.UUID]float64)
	hits := make(map[uuid.UUID]store.Hit)
	for _, list := range lists {
		for i, hit := range list {
			rank := i + 1
			scores[hit.ChunkID] += 1.0 / float64(k+rank)
			if _, seen := hits[hit.ChunkID]; !seen {
				hits[hit.ChunkID] = hit
			}
		}
	}
	fused := make([]store.Hit, 0, len(hits))
	for id, hit := range hits {
		hit.Score = scores[id]
		fused = append(fused, hit)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ChunkID.String() < fused[j].ChunkID.String()
	})
	return fused
}
