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

import "testing"

func TestIsReadOnlyStatement(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"plain select", "SELECT 1", true},
		{"lowercase select", "select * from users", true},
		{"leading whitespace", " select * from t", true},
		{"leading tab and newline", "\n\tSELECT x FROM y", true},
		{"mixed case", "SeLeCt id FROM users", true},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"lowercase cte", "with recent AS (SELECT * FROM orders) SELECT count(*) FROM recent", true},
		{"drop", "DROP TABLE users", false},
		{"update", "UPDATE users SET name = 'x'", false},
		{"lowercase insert", "insert into users values (1)", false},
		{"delete", "DELETE FROM users", false},
		{"truncate", "TRUNCATE users", false},
		{"explain", "EXPLAIN SELECT 1", false},
		{"empty", "", false},
		{"whitespace only", "   \n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadOnlyStatement(tt.sql); got != tt.want {
				t.Errorf("IsReadOnlyStatement(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}
