package service

import (
	"context"
	"errors"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/history"
	"givetrack/internal/donation/models"
	"givetrack/internal/donation/progress"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/platform/sentinel"
	"givetrack/pkg/requestcontext"
)

// Create validates fields, allocates the sequential number, and persists a
// new OPEN donation owned by the donor.
func (s *Service) Create(ctx context.Context, donorID id.UserID, fields models.DonationFields) (*models.Donation, error) {
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "donor is required")
	}
	if err := s.requireUser(ctx, donorID); err != nil {
		return nil, err
	}

	number, err := s.seq.Next(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate donation number")
	}

	d, err := models.NewDonation(id.NewDonationID(), number, donorID, fields, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.donations.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation")
	}

	s.metrics.IncrementDonationsCreated()
	s.logger.InfoContext(ctx, "donation created",
		"donation_id", d.ID.String(),
		"number", d.Number,
		"request_id", requestcontext.RequestID(ctx),
	)
	return d, nil
}

// Update applies a partial edit. Donor-only, OPEN-only; a diff entry is
// recorded unless the edit was a no-op.
func (s *Service) Update(ctx context.Context, donationID id.DonationID, actorID id.UserID, fields models.DonationFields) (*models.Donation, error) {
	now := requestcontext.Now(ctx)
	var updated *models.Donation

	ctx = withTxDonation(ctx, donationID)
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		if d.DonorID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the donor can edit a donation")
		}
		if d.Status != models.StatusOpen {
			return dErrors.New(dErrors.CodeBadRequest, "only open donations can be edited")
		}

		before := d.AuditFields()
		if err := d.ApplyFields(fields, now); err != nil {
			return err
		}

		if err := stores.Donations().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation")
		}

		changes := history.Diff(before, fields.ProvidedAuditFields())
		recorder := history.NewRecorder(stores.History())
		if _, err := recorder.Record(ctx, models.OwnerDonation, d.ID.String(), changes, now); err != nil {
			return err
		}

		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an OPEN donation and cascades to its candidacies, progress,
// and edit history, in that dependency order, inside one transaction.
func (s *Service) Delete(ctx context.Context, donationID id.DonationID, actorID id.UserID) error {
	ctx = withTxDonation(ctx, donationID)
	return s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		if d.DonorID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the donor can delete a donation")
		}
		if d.Status != models.StatusOpen {
			return dErrors.New(dErrors.CodeBadRequest, "a donation with a receiver cannot be deleted")
		}

		tracker := progress.NewTracker(stores.Progress())
		if err := tracker.Delete(ctx, donationID); err != nil {
			return err
		}
		manager := candidacy.NewManager(stores.Candidacies())
		if _, err := manager.PurgeAll(ctx, donationID); err != nil {
			return err
		}
		recorder := history.NewRecorder(stores.History())
		if _, err := recorder.Purge(ctx, models.OwnerDonation, donationID.String()); err != nil {
			return err
		}
		if err := stores.Donations().Delete(ctx, donationID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "donation not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete donation")
		}
		return nil
	})
}

// Get returns the full donation record. Visibility shaping (contact-field
// redaction for non-parties) is a presentation concern; callers use IsParty.
func (s *Service) Get(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	return loadDonation(ctx, s.donations, donationID)
}

// List returns donations newest-first with filters and paging, plus the
// total match count.
func (s *Service) List(ctx context.Context, f models.ListFilter) ([]*models.Donation, int, error) {
	items, total, err := s.donations.List(ctx, f)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return items, total, nil
}
