/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import "strings"

// CleanSQL strips markdown code fences and surrounding whitespace from
// model output. Models routinely wrap SQL in ```sql fences despite being
// told not to. Idempotent: cleaning already-clean SQL is a no-op.
func CleanSQL(text string) string {
	if text == "" {
		return ""
	}

	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.Trim(t, "`")
		// Drop the language tag if the fence carried one
		if len(t) >= 3 && strings.EqualFold(t[:3], "sql") {
			t = t[3:]
		}
	}

	// Embedded fences can survive the outer trim
	t = strings.ReplaceAll(t, "```sql", "")
	t = strings.ReplaceAll(t, "```", "")
	return strings.TrimSpace(t)
}
