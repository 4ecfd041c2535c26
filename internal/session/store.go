package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/desertthunder/ytexport/internal/shared"
	"golang.org/x/oauth2"
)

// Store persists sessions by ID.
type Store interface {
	// Get returns a live session or [shared.ErrSessionNotFound].
	Get(ctx context.Context, id string) (*models.Session, error)
	// Put inserts or replaces a session.
	Put(ctx context.Context, s *models.Session) error
	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes every session expired at now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore is a mutex-guarded in-process [Store]. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if s.Expired(m.now()) {
		return nil, fmt.Errorf("%w: %w", shared.ErrSessionNotFound, shared.ErrSessionExpired)
	}
	s.Token = copyToken(s.Token)
	return &s, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stored := *s
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	stored.Token = copyToken(s.Token)

	m.mu.Lock()
	m.sessions[s.ID] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func copyToken(tok *oauth2.Token) *oauth2.Token {
	if tok == nil {
		return nil
	}
	c := *tok
	return &c
}
