package idempotency

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the memory backend capacity when none is set.
const DefaultMemorySize = 10_000

// Memory keeps records in a bounded LRU. Evicted keys can be reused, so
// the guarantee only holds for the most recent Size keys of one process.
type Memory struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Record]
}

func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, Record](size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: cache}, nil
}

func (m *Memory) Reserve(_ context.Context, key string, rec Record) error {
	rec, err := prepare(key, rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache.Get(key); ok {
		return &ConflictError{Existing: existing}
	}
	m.cache.Add(key, rec)
	return nil
}

func (m *Memory) Complete(_ context.Context, key string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache.Peek(key); ok && rec.ReservedAt.IsZero() {
		rec.ReservedAt = existing.ReservedAt
	}
	rec.Key = key
	rec.State = StateCompleted
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	m.cache.Add(key, rec)
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(key)
	return nil
}

func (m *Memory) Lookup(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) Len() int { return m.cache.Len() }

func (m *Memory) Close() error {
	m.cache.Purge()
	return nil
}
