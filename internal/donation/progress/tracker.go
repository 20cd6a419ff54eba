// Package progress owns the bilateral confirmation ledger for donations with
// a chosen receiver.
package progress

import (
	"context"
	"errors"
	"time"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/platform/sentinel"
)

// Store persists progress records, one per donation.
type Store interface {
	Create(ctx context.Context, p *models.Progress) error
	FindByDonation(ctx context.Context, donationID id.DonationID) (*models.Progress, error)
	Update(ctx context.Context, p *models.Progress) error
	Delete(ctx context.Context, donationID id.DonationID) error
}

// Tracker applies flag updates under the checkpoint guards and exposes the
// derived booleans the lifecycle engine uses for automatic transitions.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Initialize creates the all-false ledger the instant a receiver is chosen.
func (t *Tracker) Initialize(ctx context.Context, donationID id.DonationID, now time.Time) (*models.Progress, error) {
	p := models.NewProgress(donationID, now)
	if err := t.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "progress already exists for this donation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize progress")
	}
	return p, nil
}

// ApplyFlagUpdate writes the requested flags for the acting party.
//
// Every requested flag must belong to the actor's half; a single foreign flag
// rejects the whole request with Forbidden and leaves state unchanged. Guard
// violations reject with a validation error. On success the merged record is
// re-read from the store before it is returned, so the caller's transition
// decision never relies on a stale in-memory view.
func (t *Tracker) ApplyFlagUpdate(ctx context.Context, donationID id.DonationID, party models.Party, updates []models.FlagUpdate, now time.Time) (*models.Progress, error) {
	if len(updates) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no flags provided")
	}
	for _, u := range updates {
		if !u.Flag.BelongsTo(party) {
			return nil, dErrors.New(dErrors.CodeForbidden, "cannot set the other party's confirmation")
		}
	}

	p, err := t.load(ctx, donationID)
	if err != nil {
		return nil, err
	}

	// Validate the full set against the current record before writing any
	// flag, so a rejected update leaves the ledger untouched.
	staged := *p
	for _, u := range updates {
		if err := staged.CanSet(u); err != nil {
			msg := "progress flag rejected"
			var dErr *dErrors.Error
			if errors.As(err, &dErr) {
				msg = dErr.Message
			}
			return nil, dErrors.New(dErrors.CodeBadRequest, msg)
		}
		staged.Set(u, now)
	}

	for _, u := range updates {
		p.Set(u, now)
	}
	if err := t.store.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update progress")
	}

	return t.load(ctx, donationID)
}

// Summarize returns the derived read-only view. Missing progress is not an
// error; it yields the empty summary with HasProgress false.
func (t *Tracker) Summarize(ctx context.Context, donationID id.DonationID) (models.Summary, error) {
	p, err := t.store.FindByDonation(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Summary{}, nil
		}
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load progress")
	}
	return models.Summarize(p), nil
}

// Delete removes the ledger on cancellation, completed return, or donation
// deletion. Deleting an absent record is a no-op so cascade deletes of OPEN
// donations do not fail.
func (t *Tracker) Delete(ctx context.Context, donationID id.DonationID) error {
	if err := t.store.Delete(ctx, donationID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete progress")
	}
	return nil
}

func (t *Tracker) load(ctx context.Context, donationID id.DonationID) (*models.Progress, error) {
	p, err := t.store.FindByDonation(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no progress for this donation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load progress")
	}
	return p, nil
}
