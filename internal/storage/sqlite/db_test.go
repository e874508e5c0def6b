package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestOpen_WALMode(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "mastery.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q; want wal", journalMode)
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "no", "such", "dir", "mastery.db"))
	if err == nil {
		t.Error("Open() should fail when the parent directory does not exist")
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	applied, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name); err != nil {
		t.Errorf("table kv not found: %v", err)
	}

	// Second run is a no-op
	applied, err = db.Migrate(ctx)
	if err != nil || applied != 0 {
		t.Errorf("second Migrate() = %d, %v; want 0, nil", applied, err)
	}
	if version, _ := db.Version(ctx); version != 1 {
		t.Errorf("Version() = %d; want 1", version)
	}
}

func TestMigrate_OrderAndSkips(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	db.migrations = fstest.MapFS{
		"010_index.sql": {Data: []byte("CREATE INDEX kv_updated ON kv (updated_at);")},
		"001_kv.sql":    {Data: []byte("CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB, updated_at DATETIME);")},
		"README.sql":    {Data: []byte("not sql")},
		"notes.txt":     {Data: []byte("ignored")},
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}
	if version, _ := db.Version(ctx); version != 10 {
		t.Errorf("Version() = %d, want 10", version)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	db.migrations = fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE oops (")},
	}

	applied, err := db.Migrate(ctx)
	if err == nil {
		t.Fatal("expected migration error")
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if version, _ := db.Version(ctx); version != 1 {
		t.Errorf("Version() = %d, want 1", version)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_kv.sql", 1, false},
		{"010_something.sql", 10, false},
		{"notaversion.sql", 0, true},
		{"abc_kv.sql", 0, true},
		{"000_zero.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := parseVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "mastery.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
