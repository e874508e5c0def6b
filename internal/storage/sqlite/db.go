package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/masterylab/internal/storage/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite connection that knows how to bring its schema up to date
type DB struct {
	*sql.DB
	migrations fs.FS
}

// Open connects to the database file at path. WAL mode and a busy timeout
// let the CLI read progress while the daemon writes it.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	// Single writer
	conn.SetMaxOpenConns(1)

	return &DB{DB: conn, migrations: migrations.FS}, nil
}

type migration struct {
	version int
	name    string
}

// pending lists the migrations in fsys newer than current, oldest first.
// Files that do not start with a numeric version are ignored.
func pending(fsys fs.FS, current int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []migration
	for _, name := range names {
		version, err := parseVersion(name)
		if err != nil {
			slog.Warn("skipping non-migration file", "name", name, "error", err)
			continue
		}
		if version > current {
			out = append(out, migration{version: version, name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// Migrate applies pending migrations, each in its own transaction, and
// returns how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := db.Version(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	todo, err := pending(db.migrations, current)
	if err != nil {
		return 0, err
	}

	for i, m := range todo {
		if err := db.apply(ctx, m); err != nil {
			return i, err
		}
		slog.Debug("applied migration", "name", m.name, "version", m.version)
	}
	return len(todo), nil
}

func (db *DB) apply(ctx context.Context, m migration) error {
	stmt, err := fs.ReadFile(db.migrations, m.name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(stmt)); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	return tx.Commit()
}

// Version returns the newest applied migration, 0 for a fresh database
func (db *DB) Version(ctx context.Context) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// parseVersion reads the numeric prefix of a name like "001_kv.sql"
func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(path.Base(name), "_")
	if !ok {
		return 0, fmt.Errorf("migration %s has no version prefix", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("migration %s: invalid version %q", name, prefix)
	}
	return version, nil
}
