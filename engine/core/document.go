package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies the format a document was ingested from.
type SourceType string

const (
	SourceTypePDF  SourceType = "pdf"
	SourceTypeHTML SourceType = "html"
	SourceTypeTXT  SourceType = "txt"
	SourceTypeDOCX SourceType = "docx"
)

// ParseSourceType validates a source type string.
func ParseSourceType(value string) (SourceType, error) {
	switch st := SourceType(strings.ToLower(strings.TrimSpace(value))); st {
	case SourceTypePDF, SourceTypeHTML, SourceTypeTXT, SourceTypeDOCX:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, value)
	}
}

// Document is an ingested source. Immutable after creation except Metadata;
// deleting it cascades to its chunks.
type Document struct {
	ID         uuid.UUID      `json:"id"          db:"id"`
	SourcePath string         `json:"source_path" db:"source_path"`
	SourceType SourceType     `json:"source_type" db:"source_type"`
	Title      string         `json:"title"       db:"title"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at"  db:"created_at"`
}

// Chunk is the stored form of one bounded document slice.
type Chunk struct {
	ID             uuid.UUID `json:"id"            db:"id"`
	DocumentID     uuid.UUID `json:"document_id"   db:"document_id"`
	Index          int       `json:"chunk_index"   db:"chunk_index"`
	Content        string    `json:"content"       db:"content"`
	Chars          int       `json:"content_chars" db:"content_chars"`
	EmbeddingModel string    `json:"embedding_model,omitempty" db:"embedding_model"`
}
