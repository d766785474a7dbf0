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
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a static schema description file (a JSON array of tables,
// the same shape produced by Introspect). The whole file is validated before
// any table is returned, so a malformed entry never results in a partial
// ingestion downstream.
func LoadFile(path string) ([]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var tables []Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	if err := Validate(tables); err != nil {
		return nil, fmt.Errorf("invalid schema in %s: %w", path, err)
	}

	return tables, nil
}

// Validate checks that every table and column carries the required
// identifying fields. Missing schema names fall back to "public" rather
// than failing, matching how static description files are usually written.
func Validate(tables []Table) error {
	for i := range tables {
		if tables[i].SchemaName == "" {
			tables[i].SchemaName = "public"
		}
		if tables[i].TableName == "" {
			return fmt.Errorf("table %d: missing table_name", i)
		}
		for j, col := range tables[i].Columns {
			if col.Name == "" {
				return fmt.Errorf("table %s: column %d: missing column_name", tables[i].QualifiedName(), j)
			}
			if col.DataType == "" {
				return fmt.Errorf("table %s: column %s: missing data_type", tables[i].QualifiedName(), col.Name)
			}
		}
	}
	return nil
}
