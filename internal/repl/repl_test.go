/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package repl

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"pgedge-text2sql/internal/database"
	"pgedge-text2sql/internal/pipeline"
	"pgedge-text2sql/internal/schema"
	"pgedge-text2sql/internal/vectorstore"
)

type fakeGenerator struct {
	answer *pipeline.Answer
	err    error
}

func (f *fakeGenerator) GenerateSQL(context.Context, string) (*pipeline.Answer, error) {
	return f.answer, f.err
}

type fakeExecutor struct {
	result *database.QueryResult
	err    error
	called bool
}

func (f *fakeExecutor) RunQuery(context.Context, string) (*database.QueryResult, error) {
	f.called = true
	return f.result, f.err
}

type fakeStore struct {
	count    int64
	cleared  bool
	countErr error
}

func (f *fakeStore) Reset(context.Context) error { return nil }
func (f *fakeStore) Clear(context.Context) error {
	f.cleared = true
	return nil
}
func (f *fakeStore) Ingest(context.Context, []schema.Chunk) (int, error) { return 0, nil }
func (f *fakeStore) Search(context.Context, string, int) ([]vectorstore.Hit, error) {
	return nil, nil
}
func (f *fakeStore) Count(context.Context) (int64, error) { return f.count, f.countErr }
func (f *fakeStore) Close() error                         { return nil }

func newTestSession(gen Generator, exec Executor, store vectorstore.Store) (*Session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Session{
		Generator:   gen,
		Executor:    exec,
		Store:       store,
		Output:      out,
		PlainOutput: true,
	}, out
}

func TestHandleLineCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("exit and quit end the session", func(t *testing.T) {
		s, _ := newTestSession(&fakeGenerator{}, nil, nil)
		for _, cmd := range []string{"exit", "quit", "EXIT"} {
			quit, err := s.HandleLine(ctx, cmd)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", cmd, err)
			}
			if !quit {
				t.Errorf("%q did not end the session", cmd)
			}
		}
	})

	t.Run("help lists commands", func(t *testing.T) {
		s, out := newTestSession(&fakeGenerator{}, nil, nil)
		if _, err := s.HandleLine(ctx, "help"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"ingest", "clear", "count", "exit"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("help output missing %q", want)
			}
		}
	})

	t.Run("clear empties the store", func(t *testing.T) {
		store := &fakeStore{}
		s, out := newTestSession(&fakeGenerator{}, nil, store)
		if _, err := s.HandleLine(ctx, "clear"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !store.cleared {
			t.Error("store not cleared")
		}
		if !strings.Contains(out.String(), "cleared") {
			t.Errorf("missing confirmation: %q", out.String())
		}
	})

	t.Run("count reports the store size", func(t *testing.T) {
		s, out := newTestSession(&fakeGenerator{}, nil, &fakeStore{count: 12})
		if _, err := s.HandleLine(ctx, "count"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "12") {
			t.Errorf("count not reported: %q", out.String())
		}
	})

	t.Run("ingest uses the callback", func(t *testing.T) {
		s, out := newTestSession(&fakeGenerator{}, nil, nil)
		s.Ingest = func(context.Context) (int, error) { return 7, nil }
		if _, err := s.HandleLine(ctx, "ingest"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "7") {
			t.Errorf("chunk count not reported: %q", out.String())
		}
	})

	t.Run("ingest without callback errors", func(t *testing.T) {
		s, _ := newTestSession(&fakeGenerator{}, nil, nil)
		if _, err := s.HandleLine(ctx, "ingest"); err == nil {
			t.Fatal("expected error without ingest callback")
		}
	})
}

func TestHandleLineQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("executable SQL runs and renders results", func(t *testing.T) {
		gen := &fakeGenerator{answer: &pipeline.Answer{SQL: "SELECT name FROM users", Executable: true}}
		exec := &fakeExecutor{result: &database.QueryResult{
			Columns: []string{"name"},
			Rows:    [][]any{{"alice"}},
		}}
		s, out := newTestSession(gen, exec, nil)

		if _, err := s.HandleLine(ctx, "what are the user names"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exec.called {
			t.Error("executor not called for executable SQL")
		}
		if !strings.Contains(out.String(), "SELECT name FROM users") {
			t.Errorf("SQL not shown: %q", out.String())
		}
		if !strings.Contains(out.String(), "alice") {
			t.Errorf("results not shown: %q", out.String())
		}
	})

	t.Run("non-executable SQL is shown but not run", func(t *testing.T) {
		gen := &fakeGenerator{answer: &pipeline.Answer{SQL: "DROP TABLE users", Executable: false}}
		exec := &fakeExecutor{}
		s, out := newTestSession(gen, exec, nil)

		if _, err := s.HandleLine(ctx, "drop everything"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exec.called {
			t.Error("executor must not run non-executable SQL")
		}
		if !strings.Contains(out.String(), "DROP TABLE users") {
			t.Errorf("SQL not shown: %q", out.String())
		}
		if !strings.Contains(out.String(), "Skipping execution") {
			t.Errorf("missing safety notice: %q", out.String())
		}
	})

	t.Run("no executor still shows SQL", func(t *testing.T) {
		gen := &fakeGenerator{answer: &pipeline.Answer{SQL: "SELECT 1", Executable: true}}
		s, out := newTestSession(gen, nil, nil)

		if _, err := s.HandleLine(ctx, "anything"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "SELECT 1") {
			t.Errorf("SQL not shown: %q", out.String())
		}
	})

	t.Run("empty result set", func(t *testing.T) {
		gen := &fakeGenerator{answer: &pipeline.Answer{SQL: "SELECT 1 WHERE false", Executable: true}}
		exec := &fakeExecutor{result: &database.QueryResult{Columns: []string{"?column?"}}}
		s, out := newTestSession(gen, exec, nil)

		if _, err := s.HandleLine(ctx, "anything"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No rows returned") {
			t.Errorf("missing empty-result notice: %q", out.String())
		}
	})

	t.Run("generation failure surfaces", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("model unavailable")}
		s, _ := newTestSession(gen, nil, nil)

		if _, err := s.HandleLine(ctx, "anything"); err == nil {
			t.Fatal("expected generation error")
		}
	})
}
