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
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleTables() []Table {
	return []Table{
		{
			SchemaName: "public",
			TableName:  "users",
			Columns: []Column{
				{Name: "id", DataType: "integer", Nullable: false, Default: strPtr("nextval('users_id_seq')")},
				{Name: "name", DataType: "text", Nullable: true, Description: strPtr("display name")},
			},
		},
		{
			SchemaName: "public",
			TableName:  "orders",
			Columns: []Column{
				{Name: "id", DataType: "integer", Nullable: false},
			},
		},
	}
}

func TestFlattenChunkCount(t *testing.T) {
	tables := sampleTables()
	chunks := Flatten(tables)

	// One chunk per table plus one per column
	want := 2 + 3
	if len(chunks) != want {
		t.Fatalf("Flatten produced %d chunks, want %d", len(chunks), want)
	}
}

func TestFlattenOrder(t *testing.T) {
	chunks := Flatten(sampleTables())

	wantKinds := []string{"table", "column", "column", "table", "column"}
	for i, chunk := range chunks {
		if chunk.Metadata["kind"] != wantKinds[i] {
			t.Errorf("chunk %d: kind = %q, want %q", i, chunk.Metadata["kind"], wantKinds[i])
		}
	}

	// Tables in input order
	if chunks[0].Source != "public.users" {
		t.Errorf("first chunk source = %q, want public.users", chunks[0].Source)
	}
	if chunks[3].Source != "public.orders" {
		t.Errorf("fourth chunk source = %q, want public.orders", chunks[3].Source)
	}

	// Columns in table order
	if chunks[1].Metadata["column"] != "id" || chunks[2].Metadata["column"] != "name" {
		t.Errorf("column chunks out of order: %q, %q", chunks[1].Metadata["column"], chunks[2].Metadata["column"])
	}
}

func TestFlattenTableChunkText(t *testing.T) {
	chunks := Flatten(sampleTables())

	want := "Table public.users. Columns: id, name"
	if chunks[0].Text != want {
		t.Errorf("table chunk text = %q, want %q", chunks[0].Text, want)
	}
}

func TestFlattenColumnChunkText(t *testing.T) {
	chunks := Flatten(sampleTables())

	t.Run("all attributes rendered", func(t *testing.T) {
		text := chunks[1].Text
		for _, part := range []string{"Column public.users.id", "type integer", "nullable=false", "default=nextval('users_id_seq')", "desc=null"} {
			if !strings.Contains(text, part) {
				t.Errorf("column chunk %q missing %q", text, part)
			}
		}
	})

	t.Run("missing values use placeholder", func(t *testing.T) {
		text := chunks[4].Text
		if !strings.Contains(text, "default=null") || !strings.Contains(text, "desc=null") {
			t.Errorf("column chunk %q should render missing values as null", text)
		}
	})
}

func TestFlattenZeroColumnTable(t *testing.T) {
	chunks := Flatten([]Table{{SchemaName: "public", TableName: "empty"}})

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != "Table public.empty. Columns: " {
		t.Errorf("table chunk text = %q", chunks[0].Text)
	}
	if chunks[0].Text == "" {
		t.Error("chunk text must never be empty")
	}
}

func TestFlattenEmptyInput(t *testing.T) {
	if chunks := Flatten(nil); len(chunks) != 0 {
		t.Errorf("Flatten(nil) produced %d chunks", len(chunks))
	}
}

func TestFlattenDeterministic(t *testing.T) {
	a := Flatten(sampleTables())
	b := Flatten(sampleTables())

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].Source != b[i].Source {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
