/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package prompt renders the generation prompt from a user question and
// retrieved schema context.
package prompt

import (
	"fmt"
	"strings"
)

const header = "You are a helpful assistant that writes syntactically correct PostgreSQL SQL based on the provided database schema.\n" +
	"- Use only tables, columns, and relations that appear in the context.\n" +
	"- Prefer simple SELECTs. If ambiguous, make reasonable assumptions.\n" +
	"- Return ONLY the SQL query. Do not include explanations or markdown fences.\n"

// Compose renders the full generation prompt. Context lines appear in the
// order given, which is descending retrieval relevance; an empty context
// still yields a well-formed prompt so the model can answer from the
// question alone.
func Compose(question string, contextLines []string) string {
	context := strings.Join(contextLines, "\n")
	return fmt.Sprintf("%s\nSchema Context:\n%s\n\nUser Question: %s\n\nSQL:", header, context, question)
}
