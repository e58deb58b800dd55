// Package ingest drives the extraction, chunking, embedding and persistence
// of uploaded files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/shadabshaukat/searchd/engine/chunk"
	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/extract"
	"github.com/shadabshaukat/searchd/engine/store"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

const (
	retryAttempts = 3
	retryBase     = 200 * time.Millisecond
	retryCap      = 2 * time.Second
)

// Extractor converts raw file bytes into text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*extract.Result, error)
}

// Embedder maps chunk texts to vectors in provider-sized batches.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	BatchSize() int
	Model() string
}

// Inserter persists a document with its chunks atomically.
type Inserter interface {
	InsertDocument(ctx context.Context, doc *core.Document, chunks []store.ChunkInsert, embeddingModel string) (uuid.UUID, error)
}

// Pipeline runs one file at a time through extract, chunk, embed and store.
type Pipeline struct {
	extractor Extractor
	chunker   *chunk.Processor
	embedder  Embedder
	inserter  Inserter
}

// Result summarizes one ingested file.
type Result struct {
	DocumentID uuid.UUID       `json:"document_id"`
	SourcePath string          `json:"source_path"`
	SourceType core.SourceType `json:"source_type"`
	Title      string          `json:"title"`
	Chunks     int             `json:"chunks"`
}

func NewPipeline(extractor Extractor, chunker *chunk.Processor, embedder Embedder, inserter Inserter) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: extractor is required", core.ErrInvalidConfig)
	}
	if chunker == nil {
		return nil, fmt.Errorf("%w: chunker is required", core.ErrInvalidConfig)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", core.ErrInvalidConfig)
	}
	if inserter == nil {
		return nil, fmt.Errorf("%w: inserter is required", core.ErrInvalidConfig)
	}
	return &Pipeline{extractor: extractor, chunker: chunker, embedder: embedder, inserter: inserter}, nil
}

// IngestFile processes one file end to end. Extraction and chunking faults
// fail fast; embedding and persistence retry transient provider or database
// failures with capped exponential backoff. A file that yields no textual
// content is rejected rather than stored empty.
func (p *Pipeline) IngestFile(
	ctx context.Context,
	sourcePath string,
	filename string,
	data []byte,
	metadata map[string]any,
) (*Result, error) {
	start := time.Now()
	extracted, err := p.extractor.Extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	chunks := p.chunker.Process(extracted.Text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no textual content extracted from %s", core.ErrInvalidInput, filename)
	}
	inserts, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	doc := &core.Document{
		SourcePath: sourcePath,
		SourceType: extracted.SourceType,
		Title:      extracted.Title,
		Metadata:   metadata,
	}
	var docID uuid.UUID
	err = retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		id, insertErr := p.inserter.InsertDocument(ctx, doc, inserts, p.embedder.Model())
		if insertErr != nil {
			if core.IsTransientStore(insertErr) {
				return retry.RetryableError(insertErr)
			}
			return insertErr
		}
		docID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordIngest(ctx, string(extracted.SourceType), len(chunks), time.Since(start))
	logger.FromContext(ctx).With(
		"document_id", docID,
		"source_path", sourcePath,
		"source_type", extracted.SourceType,
		"chunks", len(chunks),
		"duration", time.Since(start),
	).Info("File ingested")
	return &Result{
		DocumentID: docID,
		SourcePath: sourcePath,
		SourceType: extracted.SourceType,
		Title:      extracted.Title,
		Chunks:     len(chunks),
	}, nil
}

// embedChunks embeds in provider-sized batches and pairs each chunk with its
// vector. Dimension mismatches are configuration faults and do not retry.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []chunk.Chunk) ([]store.ChunkInsert, error) {
	batchSize := p.embedder.BatchSize()
	if batchSize <= 0 {
		batchSize = 1
	}
	inserts := make([]store.ChunkInsert, 0, len(chunks))
	for startIdx := 0; startIdx < len(chunks); startIdx += batchSize {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		end := startIdx + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[startIdx:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}
		var vectors [][]float32
		err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
			out, embedErr := p.embedder.EmbedDocuments(ctx, texts)
			if embedErr != nil {
				var mismatch *core.DimensionMismatchError
				if errors.As(embedErr, &mismatch) {
					return embedErr
				}
				return retry.RetryableError(embedErr)
			}
			vectors = out
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, &core.EmbedError{
				Model: p.embedder.Model(),
				Err:   fmt.Errorf("received %d vectors for %d chunks", len(vectors), len(batch)),
			}
		}
		for i := range batch {
			inserts = append(inserts, store.ChunkInsert{
				Index:     batch[i].Index,
				Content:   batch[i].Content,
				Chars:     batch[i].Chars,
				Embedding: vectors[i],
			})
		}
	}
	return inserts, nil
}

func (p *Pipeline) backoff() retry.Backoff {
	return retry.WithMaxRetries(retryAttempts, retry.WithCappedDuration(retryCap, retry.NewExponential(retryBase)))
}
