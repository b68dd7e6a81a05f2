package postgres

import (
	"io/fs"
	"testing"

	"oraScope/internal/storage"
)

var _ storage.Store = (*Store)(nil)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/ora":   "pgx5://u:p@localhost:5432/ora",
		"postgresql://u:p@localhost:5432/ora": "pgx5://u:p@localhost:5432/ora",
		"pgx5://u@db/ora":                     "pgx5://u@db/ora",
	}
	for in, want := range cases {
		got, err := migrateURL(in)
		if err != nil {
			t.Fatalf("migrateURL(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := migrateURL("host=localhost dbname=ora"); err == nil {
		t.Fatalf("expected keyword dsn to be rejected")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, want := range []string{"000001_init.up.sql", "000001_init.down.sql"} {
		if !names[want] {
			t.Fatalf("missing embedded migration %s", want)
		}
	}
}
