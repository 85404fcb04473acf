package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*shortener.Link         // id -> link
	codes map[shortener.Code]*shortener.Link // code -> link
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*shortener.Link),
		codes: make(map[shortener.Code]*shortener.Link),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[link.Code]; ok {
		return shortener.ErrConflict
	}

	stored := copyLink(link)
	m.links[stored.ID] = stored
	m.codes[stored.Code] = stored

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.codes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return copyLink(link), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok || !link.Active {
		return nil, shortener.ErrNotFound
	}

	return copyLink(link), nil
}

func (m *MemoryStore) Exists(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.codes[code]

	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok || !link.Active {
		return shortener.ErrNotFound
	}

	if link.Owner == "" || link.Owner != owner {
		return shortener.ErrForbidden
	}

	link.Active = false

	return nil
}

func (m *MemoryStore) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if link, ok := m.links[id]; ok {
		link.Active = false
	}

	return nil
}

func (m *MemoryStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64

	for _, link := range m.links {
		if link.Active && link.ExpiredAt(now) {
			link.Active = false
			count++
		}
	}

	return count, nil
}

// SetExpiresAt overrides the expiry of a stored link.
func (m *MemoryStore) SetExpiresAt(code shortener.Code, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.codes[code]
	if !ok {
		return false
	}

	link.ExpiresAt = &at

	return true
}

func copyLink(link *shortener.Link) *shortener.Link {
	c := *link
	if link.ExpiresAt != nil {
		at := *link.ExpiresAt
		c.ExpiresAt = &at
	}

	return &c
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
