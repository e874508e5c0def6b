package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/masterylab/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS mastery_kv (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// KVStore implements storage.KV using PostgreSQL
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore creates a store over an existing pool. The caller owns the pool
// unless the store was created with Open.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

// Open connects to dsn, ensures the table exists and returns a store that
// owns the pool.
func Open(ctx context.Context, dsn string) (*KVStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewKVStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the key-value table when missing
func (s *KVStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create mastery_kv: %w", err)
	}
	return nil
}

// Get retrieves the value for key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM mastery_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select mastery_kv: %w", err)
	}
	return value, nil
}

// Set upserts the value for key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO mastery_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert mastery_kv: %w", err)
	}
	return nil
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mastery_kv WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete mastery_kv: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close closes the pool
func (s *KVStore) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.KV = (*KVStore)(nil)
