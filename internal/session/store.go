package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Store is a namespaced string key-value store.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, ns, key string) (string, bool, error)
	Set(ctx context.Context, ns, key, value string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, ns string, keys ...string) error
	// Clear removes every key of the namespace.
	Clear(ctx context.Context, ns string) error
}

// Namespace derives the state namespace from an auth token. The token itself
// is never used as a storage key.
func Namespace(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:32]
}

// Scoped binds a Store to one namespace.
type Scoped struct {
	store Store
	ns    string
}

// Scope returns a view of store limited to ns.
func Scope(store Store, ns string) Scoped {
	return Scoped{store: store, ns: ns}
}

func (s Scoped) Namespace() string { return s.ns }

func (s Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.ns, key)
}

func (s Scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.ns, key, value)
}

func (s Scoped) Delete(ctx context.Context, keys ...string) error {
	return s.store.Delete(ctx, s.ns, keys...)
}

func (s Scoped) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.ns)
}

// =============================================================================
// MemoryStore
// =============================================================================

type memEntry struct {
	value   string
	expires time.Time
}

// MemoryStore keeps state in process memory. Entries expire ttl after their
// last write; a zero ttl keeps them forever.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]memEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]memEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MemoryStore) expired(e memEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

func (m *MemoryStore) Get(_ context.Context, ns, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[ns][key]
	if !ok || m.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, ns, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string]memEntry)
		m.data[ns] = bucket
	}
	e := memEntry{value: value}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	bucket[key] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ns string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[ns]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(bucket, k)
	}
	if len(bucket) == 0 {
		delete(m.data, ns)
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns)
	return nil
}

// DeleteExpired drops expired entries and returns how many were removed.
func (m *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for ns, bucket := range m.data {
		for k, e := range bucket {
			if m.expired(e) {
				delete(bucket, k)
				n++
			}
		}
		if len(bucket) == 0 {
			delete(m.data, ns)
		}
	}
	return n, nil
}
