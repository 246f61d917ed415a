// internal/core/domain/conversation/memory_store.go
package conversation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore - хранилище сессий в памяти процесса.
// ttl <= 0 отключает истечение.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	if m.expired(s) {
		delete(m.sessions, chatID)
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Set(_ context.Context, chatID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	stored.UpdatedAt = m.now()
	m.sessions[chatID] = stored
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
	return nil
}

// Sweep удаляет истекшие сессии и возвращает их количество
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for chatID, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, chatID)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

var _ Store = (*MemoryStore)(nil)
