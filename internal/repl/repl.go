/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package repl implements the interactive question session.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"golang.org/x/term"

	"pgedge-text2sql/internal/database"
	"pgedge-text2sql/internal/pipeline"
	"pgedge-text2sql/internal/tsv"
	"pgedge-text2sql/internal/vectorstore"
)

// maxResultRows caps how many result rows one answer renders
const maxResultRows = 50

// Generator answers questions with SQL
type Generator interface {
	GenerateSQL(ctx context.Context, question string) (*pipeline.Answer, error)
}

// Executor runs gated SQL against the target database
type Executor interface {
	RunQuery(ctx context.Context, sql string) (*database.QueryResult, error)
}

// Session is one interactive run. Executor and Ingest are optional; a
// session without them still generates and displays SQL.
type Session struct {
	Generator Generator
	Executor  Executor
	Store     vectorstore.Store

	// Ingest re-indexes the schema on demand, returning the chunk count
	Ingest func(ctx context.Context) (int, error)

	// HistoryFile is the readline history path, empty for no history
	HistoryFile string

	// Output defaults to stdout; tests redirect it
	Output io.Writer

	// PlainOutput disables markdown rendering
	PlainOutput bool
}

// Run executes the interactive loop until exit or EOF
func (s *Session) Run(ctx context.Context) error {
	if s.Output == nil {
		s.Output = os.Stdout
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "text2sql> ",
		HistoryFile:       s.HistoryFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	fmt.Fprintln(s.Output, "Ask questions about your data. Type \"help\" for commands.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF || ctx.Err() != nil {
				fmt.Fprintln(s.Output, "Goodbye!")
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		quit, err := s.HandleLine(ctx, input)
		if err != nil {
			fmt.Fprintf(s.Output, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(s.Output, "Goodbye!")
			return nil
		}
	}
}

// HandleLine processes one line of input and reports whether the session
// should end
func (s *Session) HandleLine(ctx context.Context, input string) (bool, error) {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true, nil
	case "help":
		s.printHelp()
		return false, nil
	case "clear":
		if s.Store == nil {
			return false, fmt.Errorf("no vector store attached")
		}
		if err := s.Store.Clear(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(s.Output, "Schema index cleared.")
		return false, nil
	case "ingest":
		if s.Ingest == nil {
			return false, fmt.Errorf("ingestion is not configured for this session")
		}
		n, err := s.Ingest(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.Output, "Ingested %d schema chunks.\n", n)
		return false, nil
	case "count":
		if s.Store == nil {
			return false, fmt.Errorf("no vector store attached")
		}
		n, err := s.Store.Count(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.Output, "Schema index holds %d chunks.\n", n)
		return false, nil
	}

	return false, s.answer(ctx, input)
}

// answer runs one question through the pipeline and renders the outcome
func (s *Session) answer(ctx context.Context, question string) error {
	answer, err := s.Generator.GenerateSQL(ctx, question)
	if err != nil {
		return err
	}

	s.render("```sql\n" + answer.SQL + "\n```")

	if !answer.Executable {
		fmt.Fprintln(s.Output, "Generated SQL is not a read-only statement. Skipping execution for safety.")
		return nil
	}
	if s.Executor == nil {
		return nil
	}

	result, err := s.Executor.RunQuery(ctx, answer.SQL)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	if len(result.Rows) == 0 {
		fmt.Fprintln(s.Output, "No rows returned.")
		return nil
	}
	s.render(tsv.FormatMarkdown(result.Columns, result.Rows, maxResultRows))
	return nil
}

func (s *Session) printHelp() {
	fmt.Fprint(s.Output, `Commands:
  help    show this help
  ingest  re-index the database schema
  clear   empty the schema index
  count   show how many chunks are indexed
  exit    leave the session (also: quit, Ctrl+D)

Anything else is treated as a question about your data.
`)
}

// render writes markdown to the output, styled for the terminal when
// possible and plain otherwise
func (s *Session) render(markdown string) {
	if !s.PlainOutput {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(renderWidth()),
		)
		if err == nil {
			if rendered, err := r.Render(markdown); err == nil {
				fmt.Fprint(s.Output, rendered)
				return
			}
		}
	}
	fmt.Fprintln(s.Output, markdown)
}

// renderWidth returns the word-wrap width for markdown rendering, capped
// so tables stay readable on wide terminals
func renderWidth() int {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 2 {
		width = w - 2
	}
	if width > 120 {
		width = 120
	}
	return width
}

// PromptPassword reads a password from the terminal without echo
func PromptPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
