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

import (
	"context"
	"fmt"
	"time"

	"pgedge-text2sql/internal/logging"
)

// QueryResult holds the column names and rows of an executed query
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// RunQuery executes a statement against the target database and collects
// the full result set. Callers gate the statement with
// IsReadOnlyStatement first; the read-only session is the backstop, not
// the policy.
func (c *Client) RunQuery(ctx context.Context, sql string) (*QueryResult, error) {
	if c.pool == nil {
		return nil, fmt.Errorf("not connected to target database")
	}

	start := time.Now()

	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		logging.Debug("query failed", "duration", time.Since(start).String(), "error", err.Error())
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query results: %w", err)
	}

	logging.Debug("query executed",
		"columns", len(result.Columns),
		"rows", len(result.Rows),
		"duration", time.Since(start).String())

	return result, nil
}
