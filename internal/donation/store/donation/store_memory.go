package donation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

// InMemory implements the donation store with a mutex-guarded map. Used for
// tests and single-instance deployments; production uses the Postgres store.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.DonationID]*models.Donation
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.DonationID]*models.Donation)}
}

func (s *InMemory) Create(ctx context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[d.ID] = clone(d)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.records[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(d), nil
}

func (s *InMemory) Update(ctx context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[d.ID] = clone(d)
	return nil
}

func (s *InMemory) Delete(ctx context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[donationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, donationID)
	return nil
}

// List filters, orders newest-first, and pages. The total counts all matches
// before paging so callers can render page controls.
func (s *InMemory) List(ctx context.Context, f models.ListFilter) ([]*models.Donation, int, error) {
	f = f.Normalize()

	s.mu.RLock()
	matched := make([]*models.Donation, 0, len(s.records))
	for _, d := range s.records {
		if matches(d, f) {
			matched = append(matched, clone(d))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Number > matched[j].Number
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := f.Offset()
	if start >= total {
		return []*models.Donation{}, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(d *models.Donation, f models.ListFilter) bool {
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.Category != nil && d.Category != *f.Category {
		return false
	}
	if f.City != "" && !strings.EqualFold(d.City, f.City) {
		return false
	}
	if f.State != "" && !strings.EqualFold(d.State, f.State) {
		return false
	}
	return true
}

func clone(d *models.Donation) *models.Donation {
	c := *d
	if d.ReceiverID != nil {
		receiver := *d.ReceiverID
		c.ReceiverID = &receiver
	}
	return &c
}
