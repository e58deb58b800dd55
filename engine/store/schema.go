package store

import (
	"context"
	"fmt"

	"github.com/shadabshaukat/searchd/pkg/logger"
)

// EnsureSchema creates extensions, tables and indexes if absent. It is safe
// to run on every startup; existing data is never touched. The vector column
// width, index list count and tsvector language come from deployment
// configuration, which is why the DDL is built here instead of shipped as
// static migration files.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"enable vector extension", "CREATE EXTENSION IF NOT EXISTS vector"},
		{"enable pgcrypto extension", "CREATE EXTENSION IF NOT EXISTS pgcrypto"},
		{"create documents table", `CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			source_path TEXT NOT NULL,
			source_type TEXT NOT NULL CHECK (source_type IN ('pdf', 'html', 'txt', 'docx')),
			title TEXT,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
		{"create chunks table", fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_chars INTEGER NOT NULL,
			content_tsv TSVECTOR NOT NULL,
			embedding vector(%d) NOT NULL,
			embedding_model TEXT NOT NULL,
			UNIQUE (document_id, chunk_index)
		)`, s.opts.Dimension)},
		{"create document index", "CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks (document_id)"},
		{"create lexical index", "CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON chunks USING GIN (content_tsv)"},
		{"create vector index", fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_chunks_embedding_ivfflat ON chunks "+
				"USING ivfflat (embedding vector_%s_ops) WITH (lists = %d)",
			s.opsSuffix(), s.opts.IndexLists,
		)},
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt.sql); err != nil {
			return wrapErr(stmt.name, err)
		}
	}
	logger.FromContext(ctx).With(
		"dimension", s.opts.Dimension,
		"metric", s.opts.Metric,
		"fts_language", s.opts.FTSLanguage,
		"index_lists", s.opts.IndexLists,
	).Info("Schema ensured")
	return nil
}

// ReindexVectors rebuilds the approximate vector index out of band, picking
// up the configured list count. Useful after bulk ingestion changes the row
// count enough to shift the optimal partitioning. The replacement is built
// concurrently and swapped in by rename, so live queries keep an index
// throughout. Must not run inside a transaction.
func (s *Store) ReindexVectors(ctx context.Context) error {
	build := fmt.Sprintf(
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_chunks_embedding_ivfflat_new ON chunks "+
			"USING ivfflat (embedding vector_%s_ops) WITH (lists = %d)",
		s.opsSuffix(), s.opts.IndexLists,
	)
	if _, err := s.db.Exec(ctx, build); err != nil {
		return wrapErr("build replacement vector index", err)
	}
	if _, err := s.db.Exec(ctx, "DROP INDEX CONCURRENTLY IF EXISTS idx_chunks_embedding_ivfflat"); err != nil {
		return wrapErr("drop vector index", err)
	}
	if _, err := s.db.Exec(ctx,
		"ALTER INDEX idx_chunks_embedding_ivfflat_new RENAME TO idx_chunks_embedding_ivfflat",
	); err != nil {
		return wrapErr("rename vector index", err)
	}
	logger.FromContext(ctx).With("index_lists", s.opts.IndexLists).Info("Vector index rebuilt")
	return nil
}

func (s *Store) opsSuffix() string {
	switch s.opts.Metric {
	case MetricL2:
		return "l2"
	case MetricIP:
		return "ip"
	default:
		return "cosine"
	}
}

// Readiness reports per-item schema availability, mirroring what startup
// initialization creates.
type Readiness struct {
	Ready          bool `json:"ready"`
	Extensions     bool `json:"extensions"`
	DocumentsTable bool `json:"documents_table"`
	ChunksTable    bool `json:"chunks_table"`
	TSVIndex       bool `json:"tsv_index"`
	VecIndex       bool `json:"vec_index"`
}

// CheckReadiness probes extensions, tables and indexes individually so a
// half-initialized database is diagnosable from the response body.
func (s *Store) CheckReadiness(ctx context.Context) (*Readiness, error) {
	r := &Readiness{}
	var extensionCount int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM pg_extension WHERE extname IN ('vector', 'pgcrypto')",
	).Scan(&extensionCount)
	if err != nil {
		return r, wrapErr("check extensions", err)
	}
	r.Extensions = extensionCount >= 2
	probes := []struct {
		target string
		flag   *bool
	}{
		{"documents", &r.DocumentsTable},
		{"chunks", &r.ChunksTable},
		{"idx_chunks_tsv", &r.TSVIndex},
		{"idx_chunks_embedding_ivfflat", &r.VecIndex},
	}
	for _, probe := range probes {
		var exists bool
		err := s.db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", probe.target).Scan(&exists)
		if err != nil {
			return r, wrapErr("check "+probe.target, err)
		}
		*probe.flag = exists
	}
	r.Ready = r.Extensions && r.DocumentsTable && r.ChunksTable && r.TSVIndex && r.VecIndex
	return r, nil
}
