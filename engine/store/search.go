package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/shadabshaukat/searchd/engine/core"
)

// Hit is one ranked chunk from either query path, joined with its document
// attributes. Score semantics depend on the path: lexical hits carry a
// ts_rank_cd score, vector hits a metric-adjusted similarity where higher is
// always better.
type Hit struct {
	ChunkID    uuid.UUID `json:"chunk_id"    db:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id" db:"document_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content"     db:"content"`
	SourcePath string    `json:"source_path" db:"source_path"`
	Title      string    `json:"title"       db:"title"`
	Score      float64   `json:"score"       db:"score"`
}

// SearchLexical ranks chunks against the query with ts_rank_cd over the
// stored tsvector column, using the deployment's language profile.
func (s *Store) SearchLexical(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	var hits []Hit
	err := pgxscan.Select(ctx, s.db, &hits,
		`SELECT c.id AS chunk_id, c.document_id, c.chunk_index, c.content,
		        d.source_path, COALESCE(d.title, '') AS title,
		        ts_rank_cd(c.content_tsv, plainto_tsquery($1::regconfig, $2))::float8 AS score
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE c.content_tsv @@ plainto_tsquery($1::regconfig, $2)
		 ORDER BY score DESC, c.id ASC
		 LIMIT $3`,
		s.opts.FTSLanguage, query, limit)
	if err != nil {
		return nil, wrapErr("lexical search", err)
	}
	return hits, nil
}

// SearchVector returns the nearest chunks to the query vector. The probe
// count is applied with SET LOCAL so it scopes to this transaction only.
// Scores are normalized so higher is better under every metric: cosine and
// inner product similarities for their operators, negated distance for l2.
func (s *Store) SearchVector(ctx context.Context, vector []float32, limit int) (hits []Hit, err error) {
	if len(vector) != s.opts.Dimension {
		return nil, &core.DimensionMismatchError{Want: s.opts.Dimension, Got: len(vector)}
	}
	if limit <= 0 {
		limit = 10
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin vector search", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("store: rollback failed: %w; original error: %v", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = wrapErr("commit vector search", commitErr)
		}
	}()
	if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL ivfflat.probes = %d", s.opts.IndexProbes)); err != nil {
		return nil, wrapErr("set probes", err)
	}
	query := fmt.Sprintf(
		`SELECT c.id AS chunk_id, c.document_id, c.chunk_index, c.content,
		        d.source_path, COALESCE(d.title, '') AS title,
		        (%s)::float8 AS score
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 ORDER BY c.embedding %s $1 ASC, c.id ASC
		 LIMIT $2`,
		s.scoreExpr(), s.distanceOperator(),
	)
	err = pgxscan.Select(ctx, tx, &hits, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, wrapErr("vector search", err)
	}
	return hits, nil
}

func (s *Store) distanceOperator() string {
	switch s.opts.Metric {
	case MetricL2:
		return "<->"
	case MetricIP:
		return "<#>"
	default:
		return "<=>"
	}
}

func (s *Store) scoreExpr() string {
	switch s.opts.Metric {
	case MetricL2:
		return "-(c.embedding <-> $1)"
	case MetricIP:
		// <#> returns the negated inner product, so negating it restores
		// the similarity.
		return "-(c.embedding <#> $1)"
	default:
		return "1 - (c.embedding <=> $1)"
	}
}
