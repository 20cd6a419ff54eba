package candidacy

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

// Postgres persists candidacies. The composite primary key enforces the
// one-per-(donation, applicant) constraint.
type Postgres struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, c *models.Candidacy) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO donation_candidacies (donation_id, applicant_id, created_at)
		VALUES ($1, $2, $3)`,
		c.DonationID.String(), c.ApplicantID.String(), c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert candidacy: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, donationID id.DonationID, applicantID id.UserID) (*models.Candidacy, error) {
	c := &models.Candidacy{DonationID: donationID, ApplicantID: applicantID}
	err := s.db.QueryRow(ctx, `
		SELECT created_at FROM donation_candidacies
		WHERE donation_id = $1 AND applicant_id = $2`,
		donationID.String(), applicantID.String()).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find candidacy: %w", err)
	}
	return c, nil
}

func (s *Postgres) Delete(ctx context.Context, donationID id.DonationID, applicantID id.UserID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM donation_candidacies
		WHERE donation_id = $1 AND applicant_id = $2`,
		donationID.String(), applicantID.String())
	if err != nil {
		return fmt.Errorf("delete candidacy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByDonation(ctx context.Context, donationID id.DonationID) ([]*models.Candidacy, error) {
	rows, err := s.db.Query(ctx, `
		SELECT applicant_id, created_at FROM donation_candidacies
		WHERE donation_id = $1
		ORDER BY created_at ASC, applicant_id ASC`,
		donationID.String())
	if err != nil {
		return nil, fmt.Errorf("list candidacies: %w", err)
	}
	defer rows.Close()

	out := []*models.Candidacy{}
	for rows.Next() {
		c := &models.Candidacy{DonationID: donationID}
		var applicantID string
		if err := rows.Scan(&applicantID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan candidacy: %w", err)
		}
		applicant, err := id.ParseUserID(applicantID)
		if err != nil {
			return nil, err
		}
		c.ApplicantID = applicant
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidacies: %w", err)
	}
	return out, nil
}

func (s *Postgres) PurgeByDonation(ctx context.Context, donationID id.DonationID) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM donation_candidacies WHERE donation_id = $1`,
		donationID.String())
	if err != nil {
		return 0, fmt.Errorf("purge candidacies: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
