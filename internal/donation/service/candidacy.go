package service

import (
	"context"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/requestcontext"
)

// Apply registers the actor's interest in an open donation. Runs inside the
// donation's transaction scope so a concurrent receiver selection cannot
// slip a candidacy onto a non-OPEN donation.
func (s *Service) Apply(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Candidacy, error) {
	if err := s.requireUser(ctx, actorID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var created *models.Candidacy

	ctx = withTxDonation(ctx, donationID)
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		manager := candidacy.NewManager(stores.Candidacies())
		c, err := manager.Apply(ctx, d, actorID, now)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCandidaciesCreated()
	return created, nil
}

// Withdraw removes the actor's own candidacy from an open donation.
func (s *Service) Withdraw(ctx context.Context, donationID id.DonationID, actorID id.UserID) error {
	ctx = withTxDonation(ctx, donationID)
	return s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		manager := candidacy.NewManager(stores.Candidacies())
		return manager.Withdraw(ctx, d, actorID)
	})
}

// ListCandidates returns the donation's candidacies, oldest first, to the
// donor only.
func (s *Service) ListCandidates(ctx context.Context, donationID id.DonationID, actorID id.UserID) ([]*models.Candidacy, error) {
	d, err := loadDonation(ctx, s.donations, donationID)
	if err != nil {
		return nil, err
	}
	if d.DonorID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the donor can view candidates")
	}
	return s.candidacies.ListForDonation(ctx, donationID)
}
