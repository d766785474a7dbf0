/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package schema

import (
	"fmt"
	"strings"
)

// Flatten converts a schema description into a flat, ordered sequence of
// text chunks: one summary chunk per table followed by one chunk per column.
// The textual redundancy in the column chunks (type, nullability, default,
// description, all rendered even when absent) maximizes the chance that a
// keyword or synonym in the user's question matches the chunk.
//
// Output order is stable: tables in input order, the table chunk before its
// column chunks, columns in table order.
func Flatten(tables []Table) []Chunk {
	var chunks []Chunk

	for _, table := range tables {
		source := table.QualifiedName()

		names := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			names[i] = col.Name
		}

		chunks = append(chunks, Chunk{
			Source: source,
			Text:   fmt.Sprintf("Table %s. Columns: %s", source, strings.Join(names, ", ")),
			Metadata: map[string]string{
				"kind":   "table",
				"schema": table.SchemaName,
				"table":  table.TableName,
			},
		})

		for _, col := range table.Columns {
			chunks = append(chunks, Chunk{
				Source: source,
				Text: fmt.Sprintf("Column %s.%s type %s nullable=%t default=%s desc=%s",
					source, col.Name, col.DataType, col.Nullable,
					renderOptional(col.Default), renderOptional(col.Description)),
				Metadata: map[string]string{
					"kind":   "column",
					"schema": table.SchemaName,
					"table":  table.TableName,
					"column": col.Name,
				},
			})
		}
	}

	return chunks
}

// renderOptional renders a missing value with a canonical placeholder so the
// column chunk always carries every attribute.
func renderOptional(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}
