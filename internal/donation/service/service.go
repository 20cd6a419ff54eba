// Package service implements the donation lifecycle engine. It owns the
// top-level status state machine, enforces transition preconditions, and
// orchestrates the candidacy manager, progress tracker, and edit-history
// recorder on transitions.
package service

import (
	"context"
	"errors"
	"log/slog"

	"givetrack/internal/donation/candidacy"
	"givetrack/internal/donation/history"
	donationmetrics "givetrack/internal/donation/metrics"
	"givetrack/internal/donation/models"
	"givetrack/internal/donation/progress"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/platform/sentinel"
)

// DonationStore persists donation records.
type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	Update(ctx context.Context, d *models.Donation) error
	Delete(ctx context.Context, donationID id.DonationID) error
	List(ctx context.Context, f models.ListFilter) ([]*models.Donation, int, error)
}

// SequenceAllocator supplies the human-friendly sequential donation number,
// exactly once per creation, collision-free under concurrent creates.
type SequenceAllocator interface {
	Next(ctx context.Context) (int64, error)
}

// UserDirectory is the external identity collaborator: does a user ID exist?
type UserDirectory interface {
	Exists(ctx context.Context, userID id.UserID) (bool, error)
}

// Service is the donation lifecycle engine.
type Service struct {
	donations DonationStore
	seq       SequenceAllocator
	users     UserDirectory
	tx        StoreTx

	candidacies *candidacy.Manager
	tracker     *progress.Tracker
	recorder    *history.Recorder

	logger  *slog.Logger
	metrics *donationmetrics.Metrics
}

type serviceConfig struct {
	tx      StoreTx
	users   UserDirectory
	logger  *slog.Logger
	metrics *donationmetrics.Metrics
}

type Option func(cfg *serviceConfig)

func WithTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

func WithUserDirectory(users UserDirectory) Option {
	return func(cfg *serviceConfig) { cfg.users = users }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithMetrics(m *donationmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

// New constructs the engine. When no StoreTx is provided, an in-memory
// per-donation lock runner is built over the given stores.
func New(
	donations DonationStore,
	candidacies candidacy.Store,
	progressStore progress.Store,
	historyStore history.Store,
	seq SequenceAllocator,
	opts ...Option,
) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = NewMemoryTx(donations, candidacies, progressStore, historyStore)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		donations:   donations,
		seq:         seq,
		users:       cfg.users,
		tx:          tx,
		candidacies: candidacy.NewManager(candidacies),
		tracker:     progress.NewTracker(progressStore),
		recorder:    history.NewRecorder(historyStore),
		logger:      logger,
		metrics:     cfg.metrics,
	}
}

// loadDonation translates store sentinels into domain errors.
func loadDonation(ctx context.Context, store DonationStore, donationID id.DonationID) (*models.Donation, error) {
	d, err := store.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	return d, nil
}

// partyOf resolves the actor's role on a donation, or Forbidden.
func partyOf(d *models.Donation, actorID id.UserID) (models.Party, error) {
	if d.DonorID == actorID {
		return models.PartyDonor, nil
	}
	if d.ReceiverID != nil && *d.ReceiverID == actorID {
		return models.PartyReceiver, nil
	}
	return 0, dErrors.New(dErrors.CodeForbidden, "you are not a party to this donation")
}

func (s *Service) requireUser(ctx context.Context, userID id.UserID) error {
	if s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown user")
	}
	return nil
}
