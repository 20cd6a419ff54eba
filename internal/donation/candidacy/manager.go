// Package candidacy tracks interest registrations against open donations.
package candidacy

import (
	"context"
	"errors"
	"time"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/platform/sentinel"
)

// Store persists candidacies. Implementations enforce uniqueness per
// (donation, applicant) pair and return sentinel errors.
type Store interface {
	Create(ctx context.Context, c *models.Candidacy) error
	Find(ctx context.Context, donationID id.DonationID, applicantID id.UserID) (*models.Candidacy, error)
	Delete(ctx context.Context, donationID id.DonationID, applicantID id.UserID) error
	ListByDonation(ctx context.Context, donationID id.DonationID) ([]*models.Candidacy, error)
	PurgeByDonation(ctx context.Context, donationID id.DonationID) (int, error)
}

// Manager enforces the candidacy protocol on top of a Store. It never reads
// donations itself; the lifecycle engine passes the current record in so a
// single load serves both the guard checks and the mutation.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Apply registers the applicant's interest in an OPEN donation.
func (m *Manager) Apply(ctx context.Context, d *models.Donation, applicantID id.UserID, now time.Time) (*models.Candidacy, error) {
	if d.Status != models.StatusOpen {
		return nil, dErrors.New(dErrors.CodeBadRequest, "donation is no longer open for applications")
	}
	if d.DonorID == applicantID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "donors cannot apply for their own donation")
	}

	c := &models.Candidacy{
		DonationID:  d.ID,
		ApplicantID: applicantID,
		CreatedAt:   now,
	}
	if err := m.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "you have already applied for this donation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register candidacy")
	}
	return c, nil
}

// Withdraw removes the applicant's own candidacy. Only valid while the
// donation is OPEN; a chosen receiver must use cancel-receiving instead.
func (m *Manager) Withdraw(ctx context.Context, d *models.Donation, applicantID id.UserID) error {
	if d.Status != models.StatusOpen {
		return dErrors.New(dErrors.CodeBadRequest, "candidacies only exist while the donation is open")
	}
	if err := m.store.Delete(ctx, d.ID, applicantID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no candidacy to withdraw")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw candidacy")
	}
	return nil
}

// HasActive reports whether the user holds a candidacy for the donation.
func (m *Manager) HasActive(ctx context.Context, donationID id.DonationID, userID id.UserID) (bool, error) {
	_, err := m.store.Find(ctx, donationID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up candidacy")
	}
	return true, nil
}

// ListForDonation returns candidacies ordered by creation time ascending,
// so first-come applicants are visible first.
func (m *Manager) ListForDonation(ctx context.Context, donationID id.DonationID) ([]*models.Candidacy, error) {
	list, err := m.store.ListByDonation(ctx, donationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidacies")
	}
	return list, nil
}

// PurgeAll removes every candidacy for the donation and returns the count.
// Called by the lifecycle engine inside the receiver-selection transaction.
func (m *Manager) PurgeAll(ctx context.Context, donationID id.DonationID) (int, error) {
	n, err := m.store.PurgeByDonation(ctx, donationID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge candidacies")
	}
	return n, nil
}
