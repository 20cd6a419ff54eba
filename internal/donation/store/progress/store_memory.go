package progress

import (
	"context"
	"sync"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

// InMemory implements the progress store with a mutex-guarded map keyed by
// donation ID; the key enforces the one-to-one constraint.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.DonationID]*models.Progress
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.DonationID]*models.Progress)}
}

func (s *InMemory) Create(ctx context.Context, p *models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[p.DonationID]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.records[p.DonationID] = &cp
	return nil
}

func (s *InMemory) FindByDonation(ctx context.Context, donationID id.DonationID) (*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) Update(ctx context.Context, p *models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[p.DonationID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *p
	s.records[p.DonationID] = &cp
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
