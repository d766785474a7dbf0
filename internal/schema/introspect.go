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
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// introspectQuery reads base-table columns with their pg_description
// comments, ordered by table then ordinal position so column order in the
// result reflects the natural table layout.
const introspectQuery = `
	SELECT
		c.table_schema,
		c.table_name,
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS is_nullable,
		c.column_default,
		col_description(pc.oid, pa.attnum) AS column_description
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON c.table_schema = t.table_schema AND c.table_name = t.table_name
	LEFT JOIN pg_catalog.pg_namespace pn
		ON pn.nspname = c.table_schema
	LEFT JOIN pg_catalog.pg_class pc
		ON pc.relname = c.table_name AND pc.relnamespace = pn.oid
	LEFT JOIN pg_catalog.pg_attribute pa
		ON pa.attrelid = pc.oid AND pa.attname = c.column_name
	WHERE t.table_type = 'BASE TABLE' AND c.table_schema = $1
	ORDER BY c.table_schema, c.table_name, c.ordinal_position
`

// Introspect reads the live catalog of the target database and returns the
// schema description in the same shape as LoadFile. Only base tables in the
// given schema are included.
func Introspect(ctx context.Context, pool *pgxpool.Pool, schemaName string) ([]Table, error) {
	if schemaName == "" {
		schemaName = "public"
	}

	rows, err := pool.Query(ctx, introspectQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var (
		tables  []Table
		current *Table
	)

	for rows.Next() {
		var (
			tableSchema, tableName, columnName, dataType string
			nullable                                     bool
			columnDefault, description                   *string
		)

		if err := rows.Scan(&tableSchema, &tableName, &columnName, &dataType,
			&nullable, &columnDefault, &description); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}

		// Rows arrive grouped by table, so a name change starts a new table
		if current == nil || current.SchemaName != tableSchema || current.TableName != tableName {
			tables = append(tables, Table{
				SchemaName: tableSchema,
				TableName:  tableName,
			})
			current = &tables[len(tables)-1]
		}

		current.Columns = append(current.Columns, Column{
			Name:        columnName,
			DataType:    dataType,
			Nullable:    nullable,
			Default:     columnDefault,
			Description: description,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	return tables, nil
}
