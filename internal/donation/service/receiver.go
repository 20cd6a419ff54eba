package service

import (
	"context"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/models"
	"givetrack/internal/donation/progress"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/requestcontext"
)

// ChooseReceiver assigns a candidate as the receiver, creates the progress
// ledger, and purges every candidacy for the donation, atomically. The
// status check runs against the re-read record inside the transaction, so of
// two concurrent calls exactly one wins and the loser fails validation.
func (s *Service) ChooseReceiver(ctx context.Context, donationID id.DonationID, actorID id.UserID, receiverID id.UserID) (*models.Donation, error) {
	now := requestcontext.Now(ctx)
	var chosen *models.Donation

	ctx = withTxDonation(ctx, donationID)
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		if d.DonorID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the donor can choose a receiver")
		}
		if d.Status != models.StatusOpen {
			return dErrors.New(dErrors.CodeConflict, "donation already has a receiver")
		}

		manager := candidacy.NewManager(stores.Candidacies())
		active, err := manager.HasActive(ctx, donationID, receiverID)
		if err != nil {
			return err
		}
		if !active {
			return dErrors.New(dErrors.CodeBadRequest, "chosen user has no active candidacy")
		}

		if err := d.AssignReceiver(receiverID, now); err != nil {
			return dErrors.New(dErrors.CodeConflict, "donation already has a receiver")
		}
		if err := stores.Donations().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign receiver")
		}

		tracker := progress.NewTracker(stores.Progress())
		if _, err := tracker.Initialize(ctx, donationID, now); err != nil {
			return err
		}
		// Purge all candidacies, the winner's included; the progress record
		// supersedes them.
		if _, err := manager.PurgeAll(ctx, donationID); err != nil {
			return err
		}

		chosen = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementReceiversChosen()
	s.metrics.ObserveTransition(models.StatusInProgress.String())
	s.logger.InfoContext(ctx, "receiver chosen",
		"donation_id", donationID.String(),
		"receiver_id", receiverID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return chosen, nil
}

// CancelReceiving lets the chosen receiver step back before pickup. The
// donation reopens and the progress ledger is discarded.
func (s *Service) CancelReceiving(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Donation, error) {
	now := requestcontext.Now(ctx)
	var reopened *models.Donation

	ctx = withTxDonation(ctx, donationID)
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		d, err := loadDonation(ctx, stores.Donations(), donationID)
		if err != nil {
			return err
		}
		if d.ReceiverID == nil || *d.ReceiverID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the chosen receiver can cancel receiving")
		}
		if d.Status != models.StatusInProgress {
			return dErrors.New(dErrors.CodeBadRequest, "receiving can only be cancelled before pickup")
		}

		d.Reopen(now)
		if err := stores.Donations().Update(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reopen donation")
		}
		tracker := progress.NewTracker(stores.Progress())
		if err := tracker.Delete(ctx, donationID); err != nil {
			return err
		}

		reopened = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(models.StatusOpen.String())
	return reopened, nil
}
