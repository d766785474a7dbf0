/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package database

import "strings"

// IsReadOnlyStatement reports whether generated SQL is safe to execute.
// Only statements that begin with SELECT or WITH pass; WITH is included
// because CTE-shaped reads are common model output and the read-only
// session rejects a WITH that hides a data-modifying statement.
func IsReadOnlyStatement(sql string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(trimmed, "select") || strings.HasPrefix(trimmed, "with")
}
