package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"givetrack/internal/donation/models"
	"givetrack/internal/platform/postgres"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

// Postgres persists progress ledgers, one row per donation.
type Postgres struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *models.Progress) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO donation_progress (donation_id, pickup_by_donor,
			pickup_by_receiver, completion_by_donor, completion_by_receiver,
			return_signaled, return_by_donor, return_by_receiver,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.DonationID.String(), p.PickupByDonor, p.PickupByReceiver,
		p.CompletionByDonor, p.CompletionByReceiver, p.ReturnSignaled,
		p.ReturnByDonor, p.ReturnByReceiver, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

func (s *Postgres) FindByDonation(ctx context.Context, donationID id.DonationID) (*models.Progress, error) {
	p := &models.Progress{DonationID: donationID}
	err := s.db.QueryRow(ctx, `
		SELECT pickup_by_donor, pickup_by_receiver, completion_by_donor,
			completion_by_receiver, return_signaled, return_by_donor,
			return_by_receiver, created_at, updated_at
		FROM donation_progress WHERE donation_id = $1`,
		donationID.String()).Scan(
		&p.PickupByDonor, &p.PickupByReceiver, &p.CompletionByDonor,
		&p.CompletionByReceiver, &p.ReturnSignaled, &p.ReturnByDonor,
		&p.ReturnByReceiver, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return p, nil
}

func (s *Postgres) Update(ctx context.Context, p *models.Progress) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE donation_progress
		SET pickup_by_donor = $2, pickup_by_receiver = $3,
			completion_by_donor = $4, completion_by_receiver = $5,
			return_signaled = $6, return_by_donor = $7,
			return_by_receiver = $8, updated_at = $9
		WHERE donation_id = $1`,
		p.DonationID.String(), p.PickupByDonor, p.PickupByReceiver,
		p.CompletionByDonor, p.CompletionByReceiver, p.ReturnSignaled,
		p.ReturnByDonor, p.ReturnByReceiver, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, donationID id.DonationID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM donation_progress WHERE donation_id = $1`,
		donationID.String())
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
