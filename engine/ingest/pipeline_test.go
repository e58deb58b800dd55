package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadabshaukat/searchd/engine/chunk"
	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/extract"
	"github.com/shadabshaukat/searchd/engine/store"
)

type fakeExtractor struct {
	result *extract.Result
	err    error
}

func (f *fakeExtractor) Extract(context.Context, string, []byte) (*extract.Result, error) {
	return f.result, f.err
}

type fakeEmbedder struct {
	dimension int
	batchSize int
	failures  int
	calls     int
	batches   [][]string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("provider hiccup")
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) BatchSize() int { return f.batchSize }
func (f *fakeEmbedder) Model() string  { return "fake-model" }

type fakeInserter struct {
	docID    uuid.UUID
	err      error
	errTimes int
	calls    int
	chunks   []store.ChunkInsert
	model    string
}

func (f *fakeInserter) InsertDocument(
	_ context.Context, _ *core.Document, chunks []store.ChunkInsert, model string,
) (uuid.UUID, error) {
	f.calls++
	if f.err != nil && (f.errTimes == 0 || f.calls <= f.errTimes) {
		return uuid.Nil, f.err
	}
	f.chunks = chunks
	f.model = model
	return f.docID, nil
}

func newTestPipeline(t *testing.T, extractor *fakeExtractor, embedder *fakeEmbedder, inserter *fakeInserter) *Pipeline {
	t.Helper()
	chunker, err := chunk.NewProcessor(chunk.Settings{Size: 40, Overlap: 8, NormalizeNewlines: true})
	require.NoError(t, err)
	pipeline, err := NewPipeline(extractor, chunker, embedder, inserter)
	require.NoError(t, err)
	return pipeline
}

func TestPipelineIngestFile(t *testing.T) {
	ctx := context.Background()
	extracted := &extract.Result{
		Text:       "First paragraph with enough text to produce several chunks.\n\nSecond paragraph, also with plenty of words in it.",
		Title:      "Sample",
		SourceType: core.SourceTypeTXT,
	}

	t.Run("Should extract chunk embed and persist a file", func(t *testing.T) {
		inserter := &fakeInserter{docID: uuid.New()}
		embedder := &fakeEmbedder{dimension: 3, batchSize: 2}
		pipeline := newTestPipeline(t, &fakeExtractor{result: extracted}, embedder, inserter)
		result, err := pipeline.IngestFile(ctx, "/uploads/sample.txt", "sample.txt", []byte("raw"), nil)
		require.NoError(t, err)
		assert.Equal(t, inserter.docID, result.DocumentID)
		assert.Equal(t, core.SourceTypeTXT, result.SourceType)
		assert.Equal(t, "Sample", result.Title)
		assert.Equal(t, len(inserter.chunks), result.Chunks)
		assert.Equal(t, "fake-model", inserter.model)
		for i, c := range inserter.chunks {
			assert.Equal(t, i, c.Index)
			assert.Len(t, c.Embedding, 3)
		}
	})
	t.Run("Should embed in provider-sized batches", func(t *testing.T) {
		inserter := &fakeInserter{docID: uuid.New()}
		embedder := &fakeEmbedder{dimension: 3, batchSize: 2}
		pipeline := newTestPipeline(t, &fakeExtractor{result: extracted}, embedder, inserter)
		_, err := pipeline.IngestFile(ctx, "/uploads/sample.txt", "sample.txt", []byte("raw"), nil)
		require.NoError(t, err)
		for _, batch := range embedder.batches {
			assert.LessOrEqual(t, len(batch), 2)
		}
	})
	t.Run("Should reject files with no textual content", func(t *testing.T) {
		empty := &extract.Result{Text: "   ", SourceType: core.SourceTypeTXT}
		pipeline := newTestPipeline(t, &fakeExtractor{result: empty}, &fakeEmbedder{dimension: 3, batchSize: 2}, &fakeInserter{})
		_, err := pipeline.IngestFile(ctx, "/uploads/empty.txt", "empty.txt", []byte(""), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidInput))
	})
	t.Run("Should propagate extraction failures untouched", func(t *testing.T) {
		extractErr := core.NewExtractError(core.ExtractCorruptInput, "bad.pdf", errors.New("parse"))
		pipeline := newTestPipeline(t, &fakeExtractor{err: extractErr}, &fakeEmbedder{dimension: 3, batchSize: 2}, &fakeInserter{})
		_, err := pipeline.IngestFile(ctx, "/uploads/bad.pdf", "bad.pdf", []byte("x"), nil)
		require.Error(t, err)
		var ee *core.ExtractError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, core.ExtractCorruptInput, ee.Kind)
	})
	t.Run("Should retry transient embedding failures", func(t *testing.T) {
		inserter := &fakeInserter{docID: uuid.New()}
		embedder := &fakeEmbedder{dimension: 3, batchSize: 64, failures: 2}
		pipeline := newTestPipeline(t, &fakeExtractor{result: extracted}, embedder, inserter)
		_, err := pipeline.IngestFile(ctx, "/uploads/sample.txt", "sample.txt", []byte("raw"), nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, embedder.calls, 3)
	})
	t.Run("Should retry transient store failures and then succeed", func(t *testing.T) {
		inserter := &fakeInserter{
			docID:    uuid.New(),
			err:      &core.StoreError{Op: "insert", Transient: true, Err: errors.New("conn reset")},
			errTimes: 2,
		}
		embedder := &fakeEmbedder{dimension: 3, batchSize: 64}
		pipeline := newTestPipeline(t, &fakeExtractor{result: extracted}, embedder, inserter)
		result, err := pipeline.IngestFile(ctx, "/uploads/sample.txt", "sample.txt", []byte("raw"), nil)
		require.NoError(t, err)
		assert.Equal(t, inserter.docID, result.DocumentID)
		assert.Equal(t, 3, inserter.calls)
	})
	t.Run("Should not retry integrity failures", func(t *testing.T) {
		inserter := &fakeInserter{
			err: &core.StoreError{Op: "insert", Transient: false, Err: errors.New("unique violation")},
		}
		embedder := &fakeEmbedder{dimension: 3, batchSize: 64}
		pipeline := newTestPipeline(t, &fakeExtractor{result: extracted}, embedder, inserter)
		_, err := pipeline.IngestFile(ctx, "/uploads/sample.txt", "sample.txt", []byte("raw"), nil)
		require.Error(t, err)
		assert.Equal(t, 1, inserter.calls)
	})
}
