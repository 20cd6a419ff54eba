package service

import (
	"context"
	"strings"

	"givetrack/internal/donation/models"
	"givetrack/internal/donation/progress"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/requestcontext"
)

const returnReasonMinLen = 10

// UpdateProgress writes the actor's pickup/completion confirmation flags and
// applies any automatic status transition the merged ledger calls for.
// Return flags have their own entry points: signaling needs a reason, so
// requests carrying the return-signal flag are rejected here.
func (s *Service) UpdateProgress(ctx context.Context, donationID id.DonationID, actorID id.UserID, updates []models.FlagUpdate) (*models.Donation, models.Summary, error) {
	for _, u := range updates {
		if u.Flag.Kind == models.FlagReturnSignal {
			return nil, models.Summary{}, dErrors.New(dErrors.CodeBadRequest, "use signal-return to start a return")
		}
	}
	return s.applyProgress(ctx, donationID, actorID, func(party models.Party) ([]models.FlagUpdate, error) {
		return updates, nil
	}, "")
}

// SignalReturn starts a return cycle: receiver-only, pickup must be jointly
// confirmed, and a reason of at least 10 characters is stored on the
// donation for the donor to see.
func (s *Service) SignalReturn(ctx context.Context, donationID id.DonationID, actorID id.UserID, reason string) (*models.Donation, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < returnReasonMinLen {
		return nil, dErrors.NewValidation("invalid return request", map[string]string{
			"reason": "must be at least 10 characters",
		})
	}

	d, _, err := s.applyProgress(ctx, donationID, actorID, func(party models.Party) ([]models.FlagUpdate, error) {
		if party != models.PartyReceiver {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the receiver can signal a return")
		}
		return []models.FlagUpdate{{Flag: models.Flag{Kind: models.FlagReturnSignal, Party: models.PartyReceiver}, Value: true}}, nil
	}, reason)
	return d, err
}

// ConfirmReturn records the acting party's return confirmation. When both
// parties have confirmed, the donation reopens: receiver cleared, progress
// deleted, reason wiped. A repeated confirmation from the same party is a
// harmless idempotent overwrite.
func (s *Service) ConfirmReturn(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Donation, error) {
	d, _, err := s.applyProgress(ctx, donationID, actorID, func(party models.Party) ([]models.FlagUpdate, error) {
		return []models.FlagUpdate{{Flag: models.Flag{Kind: models.FlagReturnConfirm, Party: party}, Value: true}}, nil
	}, "")
	return d, err
}

// GetProgress returns the derived progress view to the two parties only.
func (s *Service) GetProgress(ctx context.Context, donationID id.DonationID, actorID id.UserID) (models.Summary, error) {
	d, err := loadDonation(ctx, s.donations, donationID)
	if err != nil {
		return models.Summary{}, err
	}
	if _, err := partyOf(d, actorID); err != nil {
		return models.Summary{}, err
	}
	return s.tracker.Summarize(ctx, donationID)
}

// applyProgress is the shared body of every flag-writing operation: resolve
// the actor's role, apply the updates through the tracker, re-derive the
// status from the merged ledger, and run the reopen cascade when a return
// cycle completes.
func (s *Service) applyProgress(ctx context.Context, donationID id.DonationID, actorID id.UserID, buildUpdates func(models.Party) ([]models.FlagUpdate, error), returnReason string) (*models.Donation, models.Summary, error) {
	now := requestcontext.Now(ctx)
	var (
		result  *models.Donation
		summary models.Summary
	)

	ctx = withTxDonation(ctx, donationID)
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		party, err := partyOf(d, actorID)
		if err != nil {
			return err
		}
		if !d.HasReceiver() {
			return dErrors.New(dErrors.CodeBadRequest, "donation has no receiver to track progress for")
		}
		if d.Status == models.StatusCompleted {
			return dErrors.New(dErrors.CodeBadRequest, "donation is completed")
		}

		updates, err := buildUpdates(party)
		if err != nil {
			return err
		}

		tracker := progress.NewTracker(stores.Progress())
		p, err := tracker.ApplyFlagUpdate(ctx, donationID, party, updates, now)
		if err != nil {
			return err
		}

		dirty := false
		if returnReason != "" {
			d.ReturnReason = returnReason
			dirty = true
		}

		next := models.DeriveStatus(d.Status, p)
		switch {
		case next == models.StatusOpen && p.ReturnCompleted():
			d.Reopen(now)
			if err := tracker.Delete(ctx, donationID); err != nil {
				return err
			}
			dirty = true
			s.metrics.IncrementReturnsCompleted()
			s.metrics.ObserveTransition(models.StatusOpen.String())
		case next != d.Status:
			d.Status = next
			d.UpdatedAt = now
			dirty = true
			s.metrics.ObserveTransition(next.String())
		}

		if dirty {
			if err := stores.Donations().Update(ctx, d); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation status")
			}
		}

		result = d
		if d.Status == models.StatusOpen {
			summary = models.Summary{}
		} else {
			summary = models.Summarize(p)
		}
		return nil
	})
	if err != nil {
		return nil, models.Summary{}, err
	}
	return result, summary, nil
}
