package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/shadabshaukat/searchd/engine/core"
)

// ChunkInsert is one chunk payload for ingestion, embedding included.
type ChunkInsert struct {
	Index     int
	Content   string
	Chars     int
	Embedding []float32
}

// DocumentSummary is a document plus its chunk count, as returned by List.
type DocumentSummary struct {
	core.Document
	ChunkCount int `json:"chunk_count" db:"chunk_count"`
}

// InsertDocument writes a document and all its chunks in one transaction.
// Either everything lands or nothing does; a failed chunk insert rolls back
// the document row too. Returns the generated document ID.
func (s *Store) InsertDocument(
	ctx context.Context,
	doc *core.Document,
	chunks []ChunkInsert,
	embeddingModel string,
) (docID uuid.UUID, err error) {
	for i := range chunks {
		if len(chunks[i].Embedding) != s.opts.Dimension {
			return uuid.Nil, &core.DimensionMismatchError{
				Want: s.opts.Dimension,
				Got:  len(chunks[i].Embedding),
			}
		}
	}
	metadata, err := json.Marshal(orEmptyMap(doc.Metadata))
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: marshal metadata: %w", err)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, wrapErr("begin insert", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("store: rollback failed: %w; original error: %v", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = wrapErr("commit insert", commitErr)
		}
	}()
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (source_path, source_type, title, metadata)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		doc.SourcePath, string(doc.SourceType), doc.Title, metadata,
	).Scan(&docID)
	if err != nil {
		return uuid.Nil, wrapErr("insert document", err)
	}
	insertChunk := `INSERT INTO chunks (document_id, chunk_index, content, content_chars, content_tsv, embedding, embedding_model)
		 VALUES ($1, $2, $3, $4, to_tsvector($5::regconfig, $3), $6, $7)`
	for i := range chunks {
		c := chunks[i]
		_, err = tx.Exec(ctx, insertChunk,
			docID, c.Index, c.Content, c.Chars, s.opts.FTSLanguage,
			pgvector.NewVector(c.Embedding), embeddingModel,
		)
		if err != nil {
			return uuid.Nil, wrapErr(fmt.Sprintf("insert chunk %d", c.Index), err)
		}
	}
	return docID, nil
}

// GetDocument fetches one document by ID.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error) {
	var doc core.Document
	err := pgxscan.Get(ctx, s.db, &doc,
		`SELECT id, source_path, source_type, COALESCE(title, '') AS title, metadata, created_at
		 FROM documents WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, wrapErr("get document", err)
	}
	return &doc, nil
}

// ListDocuments returns documents newest first with their chunk counts.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]DocumentSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var docs []DocumentSummary
	err := pgxscan.Select(ctx, s.db, &docs,
		`SELECT d.id, d.source_path, d.source_type, COALESCE(d.title, '') AS title,
		        d.metadata, d.created_at, COUNT(c.id) AS chunk_count
		 FROM documents d
		 LEFT JOIN chunks c ON c.document_id = d.id
		 GROUP BY d.id
		 ORDER BY d.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	return docs, nil
}

// UpdateDocumentMetadata replaces a document's metadata. Documents are
// otherwise immutable after ingestion.
func (s *Store) UpdateDocumentMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error {
	payload, err := json.Marshal(orEmptyMap(metadata))
	if err != nil {
		return fmt.Errorf("store: marshal metadata: %w", err)
	}
	tag, err := s.db.Exec(ctx, "UPDATE documents SET metadata = $1 WHERE id = $2", payload, id)
	if err != nil {
		return wrapErr("update metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document; its chunks go with it through the
// foreign key cascade.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return wrapErr("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
