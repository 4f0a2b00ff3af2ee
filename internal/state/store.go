package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemoryStore keeps sessions in process. Expired entries are dropped lazily
// on access.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	ttl  time.Duration
	Now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{data: map[string]memoryEntry{}, ttl: ttl, Now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if m.ttl > 0 && m.Now().After(e.expires) {
		delete(m.data, id)
		return Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[s.ID] = memoryEntry{session: s, expires: m.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, id)
	return nil
}
