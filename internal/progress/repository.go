package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/masterylab/internal/domain"
	"github.com/felixgeelhaar/masterylab/internal/storage"
)

// Repository loads and saves the single progress record
type Repository interface {
	// Load returns domain.ErrProgressNotFound when nothing has been stored
	Load(ctx context.Context) (*domain.UserProgress, error)

	// Save overwrites the stored record wholesale
	Save(ctx context.Context, p *domain.UserProgress) error
}

// KVRepository stores the record as one JSON document under a fixed key
type KVRepository struct {
	kv  storage.KV
	key string
	now func() time.Time
}

// NewKVRepository creates a repository over kv using key as the slot
func NewKVRepository(kv storage.KV, key string) *KVRepository {
	return &KVRepository{kv: kv, key: key, now: time.Now}
}

// Load reads and decodes the stored record
func (r *KVRepository) Load(ctx context.Context) (*domain.UserProgress, error) {
	data, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("read progress: %w", err)
	}

	var p domain.UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	p.Normalize(r.now())
	return &p, nil
}

// Save encodes and writes the record
func (r *KVRepository) Save(ctx context.Context, p *domain.UserProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

var _ Repository = (*KVRepository)(nil)
