package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/example/carpool-matching/internal/models"
)

var ErrDuplicate = errors.New("storage: history item already recorded")

// HistoryStore persists confirmed rides per user. List is newest first.
type HistoryStore interface {
	Append(ctx context.Context, userID string, item models.RideHistoryItem) error
	List(ctx context.Context, userID string) ([]models.RideHistoryItem, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]models.RideHistoryItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]models.RideHistoryItem)}
}

// Seed loads items for userID in the given order, newest first.
func (m *MemoryStore) Seed(userID string, items []models.RideHistoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = append(m.items[userID], items...)
}

func (m *MemoryStore) Append(_ context.Context, userID string, item models.RideHistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items[userID] {
		if it.ID == item.ID {
			return ErrDuplicate
		}
	}
	list := make([]models.RideHistoryItem, 0, len(m.items[userID])+1)
	list = append(list, item)
	m.items[userID] = append(list, m.items[userID]...)
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]models.RideHistoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.RideHistoryItem, len(m.items[userID]))
	copy(out, m.items[userID])
	return out, nil
}
