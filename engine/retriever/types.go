package retriever

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shadabshaukat/searchd/engine/core"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeFulltext Mode = "fulltext"
	ModeHybrid   Mode = "hybrid"
	ModeRAG      Mode = "rag"
)

// ParseMode validates a mode string, defaulting empty input to hybrid.
func ParseMode(value string) (Mode, error) {
	if strings.TrimSpace(value) == "" {
		return ModeHybrid, nil
	}
	switch m := Mode(strings.ToLower(strings.TrimSpace(value))); m {
	case ModeSemantic, ModeFulltext, ModeHybrid, ModeRAG:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown search mode %q", core.ErrInvalidInput, value)
	}
}

// Request is one retrieval call.
type Request struct {
	Query string
	Mode  Mode
	TopK  int
}

// Result is one ranked chunk with its document attributes. Rank is 1-based
// within the response.
type Result struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	SourcePath string    `json:"source_path"`
	Title      string    `json:"title"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
}

// Response is the full answer to a retrieval call. Answer is set only in
// RAG mode; Results always carries the supporting chunks, so provenance is
// never dropped. When synthesis fails at query time the sources still come
// back, flagged with SynthesisUnavailable and the failure kind.
type Response struct {
	Mode                 Mode     `json:"mode"`
	Results              []Result `json:"results"`
	Answer               string   `json:"answer,omitempty"`
	SynthesisUnavailable bool     `json:"synthesis_unavailable,omitempty"`
	SynthesisFailure     string   `json:"synthesis_failure,omitempty"`
}
