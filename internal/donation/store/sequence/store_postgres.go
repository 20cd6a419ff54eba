package sequence

import (
	"context"
	"fmt"

	"givetrack/internal/platform/postgres"
)

// Postgres allocates numbers from a single counter row updated with
// increment-and-fetch, so it shares the transactional discipline of the
// other stores when constructed over an open transaction.
type Postgres struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *Postgres {
	return &Postgres{db: db}
}

// EnsureCounter creates the counter row if this is a fresh database.
func (s *Postgres) EnsureCounter(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO donation_counters (name, value)
		VALUES ('donation_number', 0)
		ON CONFLICT (name) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("ensure donation counter: %w", err)
	}
	return nil
}

func (s *Postgres) Next(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		UPDATE donation_counters
		SET value = value + 1
		WHERE name = 'donation_number'
		RETURNING value`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("allocate donation number: %w", err)
	}
	return n, nil
}
