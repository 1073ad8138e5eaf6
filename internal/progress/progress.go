// Package progress keeps each session's wizard progress between requests.
package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/rsepme/rsemodule/internal/wizard"
)

var ErrNotFound = errors.New("progress not found")

// Store loads and atomically updates wizard progress by session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (wizard.Progress, error)
	// Create stores p unless progress already exists for sessionID, and
	// returns whichever is stored.
	Create(ctx context.Context, sessionID string, p wizard.Progress) (wizard.Progress, error)
	// Update applies fn to the stored progress and saves the result if fn
	// returns nil. fn may run more than once.
	Update(ctx context.Context, sessionID string, fn func(*wizard.Progress) error) (wizard.Progress, error)
	Delete(ctx context.Context, sessionID string) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// MemoryStore is a Store for single-process deployments and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]wizard.Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]wizard.Progress)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (wizard.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[sessionID]
	if !ok {
		return wizard.Progress{}, ErrNotFound
	}
	p.Responses = p.Responses.Clone()
	return p, nil
}

func (m *MemoryStore) Create(_ context.Context, sessionID string, p wizard.Progress) (wizard.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[sessionID]; ok {
		existing.Responses = existing.Responses.Clone()
		return existing, nil
	}
	m.data[sessionID] = p
	return p, nil
}

func (m *MemoryStore) Update(_ context.Context, sessionID string, fn func(*wizard.Progress) error) (wizard.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[sessionID]
	if !ok {
		return wizard.Progress{}, ErrNotFound
	}
	p.Responses = p.Responses.Clone()
	if err := fn(&p); err != nil {
		return wizard.Progress{}, err
	}
	m.data[sessionID] = p
	return p, nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.data, sessionID)
	m.mu.Unlock()
	return nil
}
