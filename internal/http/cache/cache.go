package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rogerio-castellano/everytools-api/internal/clock"
)

var ErrInvalidTTL = errors.New("cache ttl must be positive")

// Entry is a stored HTTP response.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store holds cached responses by key.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Flush(ctx context.Context) error
}

type memoryItem struct {
	entry   Entry
	expires time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped on read
// and swept on write.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]memoryItem
	clock     clock.Clock
	lastSweep time.Time
}

const sweepInterval = time.Minute

func NewMemoryStore(c clock.Clock) *MemoryStore {
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryStore{
		items: make(map[string]memoryItem),
		clock: c,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return Entry{}, false, nil
	}
	if !m.clock.Now().Before(item.expires) {
		delete(m.items, key)
		return Entry{}, false, nil
	}
	return item.entry, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		for k, item := range m.items {
			if !now.Before(item.expires) {
				delete(m.items, k)
			}
		}
		m.lastSweep = now
	}

	m.items[key] = memoryItem{entry: e, expires: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) Flush(_ context.Context) error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
