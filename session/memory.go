package session

import (
	"context"
	"sync"
)

// MemoryStorage keeps sessions in process memory only. It backs tests and
// the SESSION_STORAGE=memory mode where losing logins on restart is
// acceptable.
type MemoryStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]Session),
	}
}

func (ms *MemoryStorage) Save(_ context.Context, session *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.sessions[session.ID] = *session

	return nil
}

func (ms *MemoryStorage) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.sessions[id]; !ok {
		return &NotFoundError{ID: id}
	}

	delete(ms.sessions, id)

	return nil
}

func (ms *MemoryStorage) List(_ context.Context) ([]*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	sessions := make([]*Session, 0, len(ms.sessions))

	for _, session := range ms.sessions {
		clone := session
		sessions = append(sessions, &clone)
	}

	return sessions, nil
}
