package candidacy

import (
	"context"
	"sort"
	"sync"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

type pairKey struct {
	donation  id.DonationID
	applicant id.UserID
}

// InMemory implements the candidacy store with a mutex-guarded map keyed by
// (donation, applicant), which gives the uniqueness constraint for free.
type InMemory struct {
	mu      sync.RWMutex
	records map[pairKey]*models.Candidacy
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[pairKey]*models.Candidacy)}
}

func (s *InMemory) Create(ctx context.Context, c *models.Candidacy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{c.DonationID, c.ApplicantID}
	if _, exists := s.records[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *c
	s.records[key] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, donationID id.DonationID, applicantID id.UserID) (*models.Candidacy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[pairKey{donationID, applicantID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) Delete(ctx context.Context, donationID id.DonationID, applicantID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{donationID, applicantID}
	if _, ok := s.records[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// ListByDonation returns candidacies ordered by creation time ascending.
func (s *InMemory) ListByDonation(ctx context.Context, donationID id.DonationID) ([]*models.Candidacy, error) {
	s.mu.RLock()
	out := []*models.Candidacy{}
	for key, c := range s.records {
		if key.donation == donationID {
			cp := *c
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ApplicantID.String() < out[j].ApplicantID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) PurgeByDonation(ctx context.Context, donationID id.DonationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key := range s.records {
		if key.donation == donationID {
			delete(s.records, key)
			purged++
		}
	}
	return purged, nil
}
