package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Store is the single authoritative holder of bearer tokens. Every mutation
// writes through to the durable storage before the in-memory copy changes,
// so the two can never diverge: if the mirror write fails, the memory stays
// untouched and the error propagates.
//
// The store is an explicit, injectable service; components that must react
// to login state changes register an observer via Subscribe instead of
// polling a hidden global.
type Store struct {
	storage Storage

	mu       sync.RWMutex
	sessions map[string]Session

	subMu       sync.Mutex
	subscribers []func(Event)
}

// Event describes a committed session mutation.
type Event struct {
	SessionID     string
	UserID        string
	Authenticated bool
}

func NewStore(storage Storage) *Store {
	return &Store{
		storage:  storage,
		sessions: make(map[string]Session),
	}
}

// Restore loads every persisted session into memory. It runs once at
// startup; an empty storage is a valid state, not an error.
func (s *Store) Restore(ctx context.Context) error {
	sessions, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range sessions {
		s.sessions[session.ID] = *session
	}

	return nil
}

// Put stores the token for a frontend session, persisting before the
// in-memory copy is updated. An empty token is a logout and removes the
// session entirely.
func (s *Store) Put(ctx context.Context, id, token, userID string) error {
	if token == "" {
		return s.Delete(ctx, id)
	}

	session := Session{
		ID:        id,
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	err := s.storage.Save(ctx, &session)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.notify(Event{SessionID: id, UserID: userID, Authenticated: true})

	return nil
}

// Delete removes a session from storage and memory. Deleting a session that
// is already gone is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.storage.Delete(ctx, id)
	if err != nil {
		var notFoundErr *NotFoundError
		if !errors.As(err, &notFoundErr) {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}

	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if existed {
		s.notify(Event{SessionID: id, Authenticated: false})
	}

	return nil
}

func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]

	return session, ok
}

// Token returns the bearer token for a session, or "" when there is none.
func (s *Store) Token(id string) string {
	session, ok := s.Get(id)
	if !ok {
		return ""
	}

	return session.Token
}

// IsAuthenticated is derived state: a session exists and carries a
// non-empty token.
func (s *Store) IsAuthenticated(id string) bool {
	return s.Token(id) != ""
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Subscribe registers an observer called synchronously after every committed
// mutation.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(event Event) {
	s.subMu.Lock()
	subscribers := slices.Clone(s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}
