package chunk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shadabshaukat/searchd/engine/core"
)

var newlinePattern = regexp.MustCompile(`\r\n|\r`)

// Processor splits normalized text according to supplied configuration.
type Processor struct {
	settings Settings
}

// NewProcessor builds a processor and validates its settings. An overlap at
// or above the size is a configuration error, never clamped.
func NewProcessor(settings Settings) (*Processor, error) {
	if settings.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero", core.ErrInvalidConfig)
	}
	if settings.Overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap cannot be negative", core.ErrInvalidConfig)
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf(
			"%w: chunk overlap %d must be smaller than size %d",
			core.ErrInvalidConfig, settings.Overlap, settings.Size,
		)
	}
	return &Processor{settings: settings}, nil
}

// Process splits text into deterministic, contiguously indexed chunks.
// Whitespace-only input yields no chunks.
func (p *Processor) Process(text string) []Chunk {
	normalized := p.preprocess(text)
	if normalized == "" {
		return nil
	}
	pieces := Split(normalized, p.settings.Size, p.settings.Overlap)
	chunks := make([]Chunk, 0, len(pieces))
	for idx, piece := range pieces {
		chunks = append(chunks, Chunk{
			Index:   idx,
			Content: piece.Text,
			Overlap: piece.Overlap,
			Chars:   utf8.RuneCountInString(piece.Text),
		})
	}
	return chunks
}

func (p *Processor) preprocess(text string) string {
	normalized := text
	if p.settings.NormalizeNewlines {
		normalized = newlinePattern.ReplaceAllString(normalized, "\n")
	}
	return strings.TrimSpace(normalized)
}
