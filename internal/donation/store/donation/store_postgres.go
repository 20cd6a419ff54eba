package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"givetrack/internal/donation/models"
	"givetrack/internal/platform/postgres"
	id "givetrack/pkg/domain"
	"givetrack/pkg/platform/sentinel"
)

const donationColumns = `id, number, title, description, category, pickup_type,
	address_line, city, state, postal_code, status, donor_id, receiver_id,
	return_reason, created_at, updated_at`

// Postgres persists donations. Constructed over a pool for plain reads or
// over an open transaction; in the latter case reads take a row lock so the
// status check and the subsequent write see the same record.
type Postgres struct {
	db        postgres.Querier
	forUpdate bool
}

func NewPostgres(db postgres.Querier) *Postgres {
	return &Postgres{db: db}
}

// NewPostgresTx constructs the store over an open transaction with locking
// reads.
func NewPostgresTx(tx postgres.Querier) *Postgres {
	return &Postgres{db: tx, forUpdate: true}
}

func (s *Postgres) Create(ctx context.Context, d *models.Donation) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO donations (`+donationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		d.ID.String(), d.Number, d.Title, d.Description, d.Category.String(),
		d.PickupType.String(), d.AddressLine, d.City, d.State, d.PostalCode,
		d.Status.String(), d.DonorID.String(), receiverArg(d.ReceiverID),
		d.ReturnReason, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	if s.forUpdate {
		query += ` FOR UPDATE`
	}
	d, err := scanDonation(s.db.QueryRow(ctx, query, donationID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	return d, nil
}

func (s *Postgres) Update(ctx context.Context, d *models.Donation) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE donations
		SET title = $2, description = $3, category = $4, pickup_type = $5,
			address_line = $6, city = $7, state = $8, postal_code = $9,
			status = $10, receiver_id = $11, return_reason = $12, updated_at = $13
		WHERE id = $1`,
		d.ID.String(), d.Title, d.Description, d.Category.String(),
		d.PickupType.String(), d.AddressLine, d.City, d.State, d.PostalCode,
		d.Status.String(), receiverArg(d.ReceiverID), d.ReturnReason, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, donationID id.DonationID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM donations WHERE id = $1`, donationID.String())
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, f models.ListFilter) ([]*models.Donation, int, error) {
	f = f.Normalize()

	where, args := buildListWhere(f)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM donations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+donationColumns+` FROM donations%s
		ORDER BY created_at DESC, number DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := s.db.Query(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	out := []*models.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	return out, total, nil
}

func buildListWhere(f models.ListFilter) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", f.Status.String())
	}
	if f.Category != nil {
		add("category = $%d", f.Category.String())
	}
	if f.City != "" {
		add("LOWER(city) = LOWER($%d)", f.City)
	}
	if f.State != "" {
		add("LOWER(state) = LOWER($%d)", f.State)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanDonation(row pgx.Row) (*models.Donation, error) {
	var (
		d          models.Donation
		category   string
		pickupType string
		status     string
		donorID    string
		donationID string
		receiverID *string
	)
	err := row.Scan(&donationID, &d.Number, &d.Title, &d.Description, &category,
		&pickupType, &d.AddressLine, &d.City, &d.State, &d.PostalCode, &status,
		&donorID, &receiverID, &d.ReturnReason, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsedID, err := id.ParseDonationID(donationID)
	if err != nil {
		return nil, err
	}
	d.ID = parsedID
	donor, err := id.ParseUserID(donorID)
	if err != nil {
		return nil, err
	}
	d.DonorID = donor
	if receiverID != nil {
		receiver, err := id.ParseUserID(*receiverID)
		if err != nil {
			return nil, err
		}
		d.ReceiverID = &receiver
	}
	d.Category = models.Category(category)
	d.PickupType = models.PickupType(pickupType)
	d.Status = models.Status(status)
	return &d, nil
}

func receiverArg(receiverID *id.UserID) *string {
	if receiverID == nil {
		return nil
	}
	s := receiverID.String()
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
