package dialect

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"postgres":   PGX,
		"PostgreSQL": PGX,
		"pgx":        PGX,
		"mysql":      MySQL,
		"sqlite":     SQLite3,
		" sqlite3 ":  SQLite3,
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
	if _, err := Normalize("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"users", "_tmp", "Order_Items2", strings.Repeat("a", 63)}
	for _, s := range valid {
		if !IsIdentifier(s) {
			t.Errorf("expected %q to be a valid identifier", s)
		}
	}
	invalid := []string{"", "1users", "users;", "users drop", "a-b", `"users"`, "t'--", strings.Repeat("a", 64)}
	for _, s := range invalid {
		if IsIdentifier(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestIsTypeName(t *testing.T) {
	valid := []string{"integer", "text", "varchar(255)", "numeric(10,2)", "BOOLEAN"}
	for _, s := range valid {
		if !IsTypeName(s) {
			t.Errorf("expected %q to be a valid type name", s)
		}
	}
	invalid := []string{"", "int;", "varchar(", "text)", "1int", "numeric(10, 2)"}
	for _, s := range invalid {
		if IsTypeName(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestCatalogQueries(t *testing.T) {
	if got := ColumnsQuery(SQLite3); !strings.Contains(got, "pragma_table_info(?)") {
		t.Errorf("sqlite: got %q", got)
	}
	if got := ColumnsQuery(PGX); !strings.Contains(got, "current_schema()") {
		t.Errorf("pgx: got %q", got)
	}
	if got := ColumnsQuery(MySQL); !strings.Contains(got, "DATABASE()") {
		t.Errorf("mysql: got %q", got)
	}
	if got := ColumnTypeQuery(PGX); strings.Count(got, "?") != 2 {
		t.Errorf("pgx type query should take two args: %q", got)
	}
	got := DistinctValuesQuery(PGX, "users", "active")
	if got != "SELECT DISTINCT active FROM users WHERE active IS NOT NULL ORDER BY 1" {
		t.Errorf("distinct: got %q", got)
	}
	got = DistinctValuesQuery(SQLite3, "events", "at")
	if got != "SELECT DISTINCT +at FROM events WHERE at IS NOT NULL ORDER BY 1" {
		t.Errorf("sqlite distinct: got %q", got)
	}
}
