/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package tsv renders query results as tab-separated values for scripting
// output and as markdown tables for the interactive session.
package tsv

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatValue converts a single result value to a TSV-safe string.
// NULL becomes the empty string; tabs and newlines are escaped so one
// row stays one line.
func FormatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	case time.Time:
		s = val.Format(time.RFC3339)
	case bool:
		if val {
			s = "true"
		} else {
			s = "false"
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s = fmt.Sprintf("%d", val)
	case float32, float64:
		s = fmt.Sprintf("%v", val)
	case []interface{}, map[string]interface{}:
		jsonBytes, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(jsonBytes)
		}
	default:
		s = fmt.Sprintf("%v", val)
	}

	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")

	return s
}

// FormatResults converts query results to TSV: a header row followed by
// data rows. An empty column list yields an empty string.
func FormatResults(columns []string, rows [][]interface{}) string {
	if len(columns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(columns, "\t"))

	for _, row := range rows {
		sb.WriteString("\n")
		values := make([]string, len(row))
		for i, val := range row {
			values[i] = FormatValue(val)
		}
		sb.WriteString(strings.Join(values, "\t"))
	}

	return sb.String()
}

// FormatMarkdown converts query results to a markdown table, NULL
// rendered as empty cells and pipes escaped. maxRows > 0 truncates the
// body and appends a note with the omitted count.
func FormatMarkdown(columns []string, rows [][]interface{}, maxRows int) string {
	if len(columns) == 0 {
		return ""
	}

	escape := func(s string) string {
		return strings.ReplaceAll(s, "|", "\\|")
	}

	var sb strings.Builder
	sb.WriteString("| ")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(escape(col))
	}
	sb.WriteString(" |\n|")
	for range columns {
		sb.WriteString("---|")
	}

	truncated := 0
	if maxRows > 0 && len(rows) > maxRows {
		truncated = len(rows) - maxRows
		rows = rows[:maxRows]
	}

	for _, row := range rows {
		sb.WriteString("\n| ")
		for i, val := range row {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(escape(FormatValue(val)))
		}
		sb.WriteString(" |")
	}

	if truncated > 0 {
		sb.WriteString(fmt.Sprintf("\n\n_%d more rows not shown_", truncated))
	}

	return sb.String()
}
