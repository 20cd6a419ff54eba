package history

import (
	"context"
	"sort"
	"sync"

	"givetrack/internal/donation/models"
)

type ownerKey struct {
	ownerType models.OwnerType
	ownerID   string
}

// InMemory implements the append-only history store.
type InMemory struct {
	mu      sync.RWMutex
	entries map[ownerKey][]*models.EditHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[ownerKey][]*models.EditHistoryEntry)}
}

func (s *InMemory) Append(ctx context.Context, e *models.EditHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey{e.OwnerType, e.OwnerID}
	s.entries[key] = append(s.entries[key], cloneEntry(e))
	return nil
}

// ListByOwner returns entries newest-first.
func (s *InMemory) ListByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]*models.EditHistoryEntry, error) {
	s.mu.RLock()
	stored := s.entries[ownerKey{ownerType, ownerID}]
	out := make([]*models.EditHistoryEntry, 0, len(stored))
	for _, e := range stored {
		out = append(out, cloneEntry(e))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) PurgeByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey{ownerType, ownerID}
	n := len(s.entries[key])
	delete(s.entries, key)
	return n, nil
}

func cloneEntry(e *models.EditHistoryEntry) *models.EditHistoryEntry {
	cp := *e
	cp.Changes = make(map[string]models.FieldChange, len(e.Changes))
	for k, v := range e.Changes {
		cp.Changes[k] = v
	}
	return &cp
}
