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
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"pgedge-text2sql/internal/embedding"
	"pgedge-text2sql/internal/logging"
	"pgedge-text2sql/internal/schema"
)

// SQLiteStore is the fallback index for environments without a
// pgvector-enabled PostgreSQL instance. Embeddings are stored as
// little-endian float32 blobs and searched exactly in process; since all
// vectors are unit length, cosine similarity is a plain dot product.
type SQLiteStore struct {
	db         *sql.DB
	embedder   embedding.Provider
	dimensions int
}

// NewSQLiteStore opens (or creates) the index database at path. Use
// ":memory:" for an ephemeral index.
func NewSQLiteStore(path string, embedder embedding.Provider, dimensions int) (*SQLiteStore, error) {
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

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		embedder:   embedder,
		dimensions: dimensions,
	}, nil
}

// Reset creates the chunk table and its source index if absent
func (s *SQLiteStore) Reset(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS schema_chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		chunk TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_schema_chunks_source ON schema_chunks (source);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}
	return nil
}

// Clear removes all persisted records
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM schema_chunks"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// Ingest embeds and stores the given chunks in one transaction
func (s *SQLiteStore) Ingest(ctx context.Context, chunks []schema.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	// Embed before writing so a failure cannot commit a partial batch
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO schema_chunks (source, chunk, metadata, embedding) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		metaJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata for chunk %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.Source, chunk.Text, string(metaJSON), serializeVector(vectors[i])); err != nil {
			return 0, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	logging.Info("ingested chunks", "count", len(chunks))
	return len(chunks), nil
}

// Search scans all records and returns the top-k by dot-product similarity
func (s *SQLiteStore) Search(ctx context.Context, queryText string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := checkDimensions(queryVec, s.dimensions); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, chunk, metadata, embedding FROM schema_chunks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	type scoredHit struct {
		id  int64
		hit Hit
	}
	var scored []scoredHit

	for rows.Next() {
		var (
			id           int64
			source, text string
			metaJSON     string
			blob         []byte
		)
		if err := rows.Scan(&id, &source, &text, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		vec := deserializeVector(blob)
		if err := checkDimensions(vec, s.dimensions); err != nil {
			return nil, fmt.Errorf("record %d: %w", id, err)
		}

		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			return nil, fmt.Errorf("record %d: failed to parse metadata: %w", id, err)
		}

		scored = append(scored, scoredHit{
			id: id,
			hit: Hit{
				Source:   source,
				Text:     text,
				Metadata: metadata,
				Score:    dot(queryVec, vec),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	// Descending similarity, ties by insertion id ascending
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].hit.Score != scored[j].hit.Score {
			return scored[i].hit.Score > scored[j].hit.Score
		}
		return scored[i].id < scored[j].id
	})

	if len(scored) > k {
		scored = scored[:k]
	}

	hits := make([]Hit, len(scored))
	for i, sh := range scored {
		hits[i] = sh.hit
	}
	return hits, nil
}

// Count returns the number of persisted records
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// serializeVector converts a vector to a little-endian float32 blob. The
// float32 narrowing loses precision beyond what ranking needs, matching the
// fixed-precision contract of the PostgreSQL text literal.
func serializeVector(vec []float64) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

// deserializeVector converts a blob back to a vector
func deserializeVector(data []byte) []float64 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float64, len(data)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		vec[i] = float64(math.Float32frombits(bits))
	}
	return vec
}

// dot computes the dot product of two equal-length vectors
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
