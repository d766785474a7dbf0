/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pgedge-text2sql/internal/embedding"
	"pgedge-text2sql/internal/logging"
	"pgedge-text2sql/internal/schema"
)

// PostgresStore persists schema chunks in a pgvector-enabled PostgreSQL
// database. Similarity search uses the cosine distance operator, with an
// ivfflat index when the server supports it and exact scan otherwise; the
// returned ranking is the same either way.
type PostgresStore struct {
	pool       *pgxpool.Pool
	embedder   embedding.Provider
	dimensions int
}

// NewPostgresStore creates a store backed by the given pool. dimensions
// fixes the width of the vector column; every ingested and queried
// embedding must match it.
func NewPostgresStore(pool *pgxpool.Pool, embedder embedding.Provider, dimensions int) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}
	if dims := embedder.Dimensions(); dims > 0 && dims != dimensions {
		return nil, fmt.Errorf("embedding model %s produces %d dimensions, store configured for %d",
			embedder.ModelName(), dims, dimensions)
	}

	return &PostgresStore{
		pool:       pool,
		embedder:   embedder,
		dimensions: dimensions,
	}, nil
}

// Reset creates the vector extension, the chunk table and its indexes if
// they do not exist yet. Safe to call repeatedly.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS schema_chunks (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			chunk TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding VECTOR(%d)
		)`, s.dimensions)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create schema_chunks table: %w", err)
	}

	// ivfflat is an optimization, not a requirement: older pgvector builds
	// reject it and exact scan still returns the same ranking
	if _, err := s.pool.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS idx_schema_chunks_embedding ON schema_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)"); err != nil {
		logging.Debug("ivfflat index unavailable, falling back to exact search", "error", err.Error())
	}

	if _, err := s.pool.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS idx_schema_chunks_source ON schema_chunks (source)"); err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}

	return nil
}

// Clear removes all persisted records
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE schema_chunks"); err != nil {
		return fmt.Errorf("failed to clear schema_chunks: %w", err)
	}
	return nil
}

// Ingest embeds and stores the given chunks in one transaction
func (s *PostgresStore) Ingest(ctx context.Context, chunks []schema.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	// Embed everything before touching the database so a failure cannot
	// leave a partial batch behind
	vectors := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d (%s): %w", i, chunk.Source, err)
		}
		if err := checkDimensions(vec, s.dimensions); err != nil {
			return 0, fmt.Errorf("chunk %d (%s): %w", i, chunk.Source, err)
		}
		vectors[i] = vec
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		metaJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata for chunk %d: %w", i, err)
		}
		batch.Queue(
			"INSERT INTO schema_chunks (source, chunk, metadata, embedding) VALUES ($1, $2, $3, $4::vector)",
			chunk.Source, chunk.Text, metaJSON, formatVector(vectors[i]))
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	logging.Info("ingested chunks", "count", len(chunks))
	return len(chunks), nil
}

// Search returns the top-k most similar chunks for the query text
func (s *PostgresStore) Search(ctx context.Context, queryText string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := checkDimensions(vec, s.dimensions); err != nil {
		return nil, err
	}

	literal := formatVector(vec)
	rows, err := s.pool.Query(ctx, `
		SELECT source, chunk, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM schema_chunks
		ORDER BY embedding <=> $1::vector, id
		LIMIT $2`, literal, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.Source, &hit.Text, &hit.Metadata, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	return hits, nil
}

// Count returns the number of persisted records
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// formatVector serializes a vector as a pgvector text literal. Eight decimal
// digits preserve ranking order; bit-exact round-trips are not needed.
func formatVector(vec []float64) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'f', 8, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
