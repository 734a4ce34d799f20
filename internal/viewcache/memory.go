package viewcache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a bounded in-process Store. Expired entries are dropped on read.
type MemoryStore struct {
	cache *lru.Cache[string, memEntry]
	now   func() time.Time
}

func NewMemoryStore(size int, now func() time.Time) (*MemoryStore, error) {
	if size <= 0 {
		size = 256
	}
	if now == nil {
		now = time.Now
	}
	c, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: c, now: now}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.cache.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.cache.Add(key, e)
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, k := range m.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			m.cache.Remove(k)
		}
	}
	return nil
}

func (m *MemoryStore) Len() int { return m.cache.Len() }
