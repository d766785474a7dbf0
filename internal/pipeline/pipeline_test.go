/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"pgedge-text2sql/internal/schema"
	"pgedge-text2sql/internal/vectorstore"
)

type fakeStore struct {
	hits      []vectorstore.Hit
	searchErr error
	lastK     int
	lastQuery string
}

func (f *fakeStore) Reset(context.Context) error { return nil }
func (f *fakeStore) Clear(context.Context) error { return nil }
func (f *fakeStore) Ingest(context.Context, []schema.Chunk) (int, error) {
	return 0, nil
}
func (f *fakeStore) Search(_ context.Context, queryText string, k int) ([]vectorstore.Hit, error) {
	f.lastQuery = queryText
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}
func (f *fakeStore) Count(context.Context) (int64, error) { return int64(len(f.hits)), nil }
func (f *fakeStore) Close() error                         { return nil }

type fakeClient struct {
	sql        string
	err        error
	lastPrompt string
}

func (f *fakeClient) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.sql, f.err
}
func (f *fakeClient) ProviderName() string { return "fake" }
func (f *fakeClient) ModelName() string    { return "fake-model" }
func (f *fakeClient) IsConfigured() bool   { return true }

func TestNewPipeline(t *testing.T) {
	store := &fakeStore{}
	client := &fakeClient{}

	if _, err := New(nil, client, 5); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(store, nil, 5); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := New(store, client, 0); err == nil {
		t.Error("expected error for non-positive top_k")
	}
	if _, err := New(store, client, 5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerateSQL(t *testing.T) {
	hits := []vectorstore.Hit{
		{Source: "public.users", Text: "Table public.users. Columns: id, name", Score: 0.9},
		{Source: "public.users.name", Text: "Column public.users.name type text nullable=true default=null desc=null", Score: 0.8},
	}

	t.Run("retrieved context flows into the prompt", func(t *testing.T) {
		store := &fakeStore{hits: hits}
		client := &fakeClient{sql: "SELECT name FROM users"}
		p, err := New(store, client, 5)
		if err != nil {
			t.Fatalf("failed to create pipeline: %v", err)
		}

		answer, err := p.GenerateSQL(context.Background(), "what is the user's name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if store.lastQuery != "what is the user's name" {
			t.Errorf("store queried with %q", store.lastQuery)
		}
		if store.lastK != 5 {
			t.Errorf("store queried with k=%d, want 5", store.lastK)
		}
		for _, hit := range hits {
			if !strings.Contains(client.lastPrompt, hit.Text) {
				t.Errorf("prompt missing context line %q", hit.Text)
			}
		}
		if answer.SQL != "SELECT name FROM users" {
			t.Errorf("sql = %q", answer.SQL)
		}
		if !answer.Executable {
			t.Error("SELECT should be executable")
		}
		if len(answer.Hits) != len(hits) {
			t.Errorf("answer carries %d hits, want %d", len(answer.Hits), len(hits))
		}
	})

	t.Run("non-select is flagged not executable", func(t *testing.T) {
		store := &fakeStore{hits: hits}
		client := &fakeClient{sql: "DROP TABLE users"}
		p, _ := New(store, client, 5)

		answer, err := p.GenerateSQL(context.Background(), "delete everything")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if answer.Executable {
			t.Error("DROP must not be executable")
		}
		if answer.SQL != "DROP TABLE users" {
			t.Errorf("generated SQL must still be returned, got %q", answer.SQL)
		}
	})

	t.Run("empty index still generates", func(t *testing.T) {
		store := &fakeStore{}
		client := &fakeClient{sql: "SELECT 1"}
		p, _ := New(store, client, 5)

		answer, err := p.GenerateSQL(context.Background(), "anything")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(answer.Hits) != 0 {
			t.Errorf("expected no hits, got %d", len(answer.Hits))
		}
		if answer.SQL != "SELECT 1" {
			t.Errorf("sql = %q", answer.SQL)
		}
	})

	t.Run("retrieval failure aborts", func(t *testing.T) {
		store := &fakeStore{searchErr: fmt.Errorf("connection lost")}
		client := &fakeClient{sql: "SELECT 1"}
		p, _ := New(store, client, 5)

		if _, err := p.GenerateSQL(context.Background(), "anything"); err == nil {
			t.Fatal("expected retrieval error")
		}
		if client.lastPrompt != "" {
			t.Error("generation must not run after retrieval failure")
		}
	})

	t.Run("generation failure aborts", func(t *testing.T) {
		store := &fakeStore{hits: hits}
		client := &fakeClient{err: fmt.Errorf("model unavailable")}
		p, _ := New(store, client, 5)

		if _, err := p.GenerateSQL(context.Background(), "anything"); err == nil {
			t.Fatal("expected generation error")
		}
	})
}
