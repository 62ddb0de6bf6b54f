package bridge

import (
	"context"
	"sort"
	"sync"
)

// Key addresses one persisted document: a source, a cooking task or the inventory
// of one session.
type Key struct {
	Session string
	Entry   string
}

func (k Key) String() string { return k.Session + ":" + k.Entry }

// Store is the process-wide document store the bridge reads and writes.
// Implementations must be safe for concurrent use by several sessions.
type Store interface {
	Get(ctx context.Context, k Key) ([]byte, bool, error)
	Put(ctx context.Context, k Key, doc []byte) error
	Keys(ctx context.Context, session string) ([]Key, error)
}

// MemoryStore keeps documents for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[Key][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, k Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[k]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, k Key, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[k] = append([]byte(nil), doc...)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, session string) ([]Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Key
	for k := range m.docs {
		if k.Session == session {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out, nil
}
