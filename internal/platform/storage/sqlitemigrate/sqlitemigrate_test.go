package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyMigrationsRunsOnce(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0001_widgets.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE widgets (id TEXT PRIMARY KEY);
-- +migrate Down
DROP TABLE widgets;
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	// Repeated application must be a no-op.
	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}

	if _, err := sqlDB.Exec("INSERT INTO widgets (id) VALUES ('w1')"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}

	var applied int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", applied)
	}
}

func TestApplyMigrationsOrdersByName(t *testing.T) {
	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0002_add_column.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
ALTER TABLE gadgets ADD COLUMN name TEXT;
`)},
		"0001_gadgets.sql": &fstest.MapFile{Data: []byte(`
-- +migrate Up
CREATE TABLE gadgets (id TEXT PRIMARY KEY);
`)},
	}

	if err := ApplyMigrations(sqlDB, migrationFS, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := sqlDB.Exec("INSERT INTO gadgets (id, name) VALUES ('g1', 'first')"); err != nil {
		t.Fatalf("insert with migrated column: %v", err)
	}
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	content := "-- +migrate Up\nCREATE TABLE t (id TEXT);\n-- +migrate Down\nDROP TABLE t;\n"
	up := ExtractUpMigration(content)
	if up != "\nCREATE TABLE t (id TEXT);\n" {
		t.Fatalf("unexpected up section %q", up)
	}

	plain := "CREATE TABLE t (id TEXT);"
	if got := ExtractUpMigration(plain); got != plain {
		t.Fatalf("expected unmarked content returned verbatim, got %q", got)
	}
}
