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
	"fmt"

	"pgedge-text2sql/internal/schema"
)

// Hit is one search result: a stored chunk with its similarity score.
// Hits are ephemeral; they are produced per query and never persisted.
type Hit struct {
	Source   string
	Text     string
	Metadata map[string]string
	Score    float64
}

// Store is a durable index of schema chunks with vector similarity search.
// Implementations embed chunk text on ingestion and query text on search
// using the same embedding provider, so the two sides always agree on the
// vector space.
type Store interface {
	// Reset idempotently ensures the storage schema exists. Safe to call
	// before every other operation.
	Reset(ctx context.Context) error

	// Clear empties all persisted records without altering the storage
	// schema. Irreversible.
	Clear(ctx context.Context) error

	// Ingest embeds each chunk's text and bulk-appends the records in a
	// single transaction. Returns the number ingested. An empty input
	// returns 0 and performs no work; an embedding failure or dimension
	// mismatch aborts before any row is written.
	Ingest(ctx context.Context, chunks []schema.Chunk) (int, error)

	// Search embeds the query and returns up to k hits in descending
	// similarity order, ties broken by insertion id ascending. An empty
	// store yields an empty result, never an error.
	Search(ctx context.Context, queryText string, k int) ([]Hit, error)

	// Count returns the number of persisted records
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying storage resources
	Close() error
}

// checkDimensions verifies that a vector matches the configured embedding
// dimension. A mismatch is fatal for the whole operation: it means the
// store was built with a different model than the one now in use.
func checkDimensions(vec []float64, want int) error {
	if len(vec) != want {
		return fmt.Errorf("embedding dimension mismatch: got %d, store expects %d (was the index built with a different model?)", len(vec), want)
	}
	return nil
}
