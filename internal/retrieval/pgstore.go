package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrNoEmbedder is returned by NewPGStore when no embedder is supplied.
var ErrNoEmbedder = errors.New("retrieval: postgres store requires an embedder")

// PGStore keeps chunks in the document_chunks table with a pgvector embedding column
// and ranks them by cosine distance.
type PGStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewPGStore returns a store over pool.
func NewPGStore(pool *pgxpool.Pool, embedder Embedder) (*PGStore, error) {
	if embedder == nil {
		return nil, ErrNoEmbedder
	}
	return &PGStore{pool: pool, embedder: embedder}, nil
}

// Upsert implements Store.
func (s *PGStore) Upsert(ctx context.Context, runID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := s.embedder.Embed(ctx, chunkTexts(chunks))
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			`INSERT INTO document_chunks (id, run_id, doc_id, doc_type, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET content = $6, embedding = $7, created_at = NOW()`,
			c.ID, runID, c.DocID, c.Metadata.DocType, c.Metadata.ChunkIndex, c.Text, pgvector.NewVector(vectors[i]),
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// Query implements Store. Score is 1 minus the cosine distance.
func (s *PGStore) Query(ctx context.Context, text, runID string, n int) ([]Match, error) {
	if n <= 0 {
		n = DefaultQueryLimit
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, doc_id, doc_type, chunk_index, content, 1 - (embedding <=> $1) AS score
		 FROM document_chunks
		 WHERE run_id = $2
		 ORDER BY embedding <=> $1, id
		 LIMIT $3`,
		pgvector.NewVector(vecs[0]), runID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Chunk.ID, &m.Chunk.DocID, &m.Chunk.Metadata.DocType,
			&m.Chunk.Metadata.ChunkIndex, &m.Chunk.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		m.Chunk.Metadata.CandidateID = runID
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return matches, nil
}

// DeleteRun removes every chunk of runID.
func (s *PGStore) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
