// Package storage defines the single-slot key-value contract the progress
// record is persisted through, plus the in-memory implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNotFound is returned when a key has never been written
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned by writes to a Degraded store
	ErrUnavailable = errors.New("storage unavailable")
)

// KV is a minimal key-value store. Values are opaque bytes and are replaced
// wholesale on every write.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is a KV held in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[key]; !ok {
		return ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }

// Degraded stands in for a backend that could not be opened. Values are kept
// in memory so the process keeps working, but every write reports the
// original failure.
type Degraded struct {
	*Memory
	cause error
}

// NewDegraded wraps cause, the error that made the real backend unusable
func NewDegraded(cause error) *Degraded {
	return &Degraded{Memory: NewMemory(), cause: cause}
}

// Cause returns the error the real backend failed with
func (d *Degraded) Cause() error {
	return d.cause
}

func (d *Degraded) Set(ctx context.Context, key string, value []byte) error {
	if err := d.Memory.Set(ctx, key, value); err != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, d.cause)
}

var (
	_ KV = (*Memory)(nil)
	_ KV = (*Degraded)(nil)
)
