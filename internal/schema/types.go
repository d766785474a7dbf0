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

// Column describes a single column of a table, as read from a schema
// description file or from live catalog introspection.
type Column struct {
	Name        string  `json:"column_name"`
	DataType    string  `json:"data_type"`
	Nullable    bool    `json:"is_nullable"`
	Default     *string `json:"column_default"`
	Description *string `json:"description"`
}

// Table describes one table together with its columns. Column order is
// preserved as delivered by the source (ordinal position for live
// introspection, file order for static files).
type Table struct {
	SchemaName string   `json:"table_schema"`
	TableName  string   `json:"table_name"`
	Columns    []Column `json:"columns"`
}

// QualifiedName returns the schema-qualified table name, e.g. "public.users".
func (t Table) QualifiedName() string {
	return t.SchemaName + "." + t.TableName
}

// Chunk is a unit of schema-derived natural-language text prepared for
// embedding and retrieval. Chunks are immutable once created.
type Chunk struct {
	Source   string            // "schema.table" the chunk was derived from
	Text     string            // natural-language description to embed
	Metadata map[string]string // kind (table|column) plus identifiers
}
