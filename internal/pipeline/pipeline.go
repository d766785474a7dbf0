/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package pipeline wires retrieval, prompt composition and generation into
// the question-to-SQL flow.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"pgedge-text2sql/internal/database"
	"pgedge-text2sql/internal/llm"
	"pgedge-text2sql/internal/logging"
	"pgedge-text2sql/internal/prompt"
	"pgedge-text2sql/internal/vectorstore"
)

// Answer is the outcome of one question: the generated SQL, the schema
// context that informed it, and whether the SQL passed the read-only gate.
type Answer struct {
	SQL        string
	Hits       []vectorstore.Hit
	Executable bool
}

// Pipeline turns natural-language questions into SQL grounded in the
// indexed schema
type Pipeline struct {
	store  vectorstore.Store
	client llm.Client
	topK   int
}

// New creates a pipeline. topK is the number of schema chunks retrieved
// per question.
func New(store vectorstore.Store, client llm.Client, topK int) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("generation client is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	return &Pipeline{store: store, client: client, topK: topK}, nil
}

// Retrieve returns the k schema chunks most similar to the question
func (p *Pipeline) Retrieve(ctx context.Context, question string, k int) ([]vectorstore.Hit, error) {
	hits, err := p.store.Search(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("schema retrieval failed: %w", err)
	}
	return hits, nil
}

// GenerateSQL answers a question: retrieve schema context, compose the
// prompt, generate and gate the SQL. An empty index is not an error; the
// model answers from the question alone and the gate still applies.
func (p *Pipeline) GenerateSQL(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	hits, err := p.Retrieve(ctx, question, p.topK)
	if err != nil {
		return nil, err
	}

	contextLines := make([]string, len(hits))
	for i, hit := range hits {
		contextLines[i] = hit.Text
	}

	sql, err := p.client.Generate(ctx, prompt.Compose(question, contextLines))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	answer := &Answer{
		SQL:        sql,
		Hits:       hits,
		Executable: database.IsReadOnlyStatement(sql),
	}

	logging.Info("question answered",
		"provider", p.client.ProviderName(),
		"model", p.client.ModelName(),
		"context_chunks", len(hits),
		"executable", answer.Executable,
		"duration", time.Since(start).String())

	return answer, nil
}
