package service

import (
	"context"

	"givetrack/internal/donation/history"
	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/requestcontext"
)

// DonationHistory returns the public, newest-first edit trail for a
// donation. The donation must exist; a deleted donation's history is gone
// with it.
func (s *Service) DonationHistory(ctx context.Context, donationID id.DonationID) ([]*models.EditHistoryEntry, error) {
	if _, err := loadDonation(ctx, s.donations, donationID); err != nil {
		return nil, err
	}
	return s.recorder.List(ctx, models.OwnerDonation, donationID.String())
}

// ProfileHistory returns a user's profile edit trail to that user only.
func (s *Service) ProfileHistory(ctx context.Context, profileID id.UserID, actorID id.UserID) ([]*models.EditHistoryEntry, error) {
	if profileID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "profile history is visible to its owner only")
	}
	return s.recorder.List(ctx, models.OwnerProfile, profileID.String())
}

// RecordProfileEdit lets the external profile CRUD layer push field diffs
// into the shared audit trail. A no-op edit records nothing.
func (s *Service) RecordProfileEdit(ctx context.Context, profileID id.UserID, before, after map[string]string) (*models.EditHistoryEntry, error) {
	changes := history.Diff(before, after)
	return s.recorder.Record(ctx, models.OwnerProfile, profileID.String(), changes, requestcontext.Now(ctx))
}
