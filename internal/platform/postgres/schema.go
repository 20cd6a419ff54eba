package postgres

import (
	"context"
	"fmt"
)

// schema is applied at startup. Statements are idempotent so repeated boots
// against the same database are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS donations (
		id            UUID PRIMARY KEY,
		number        BIGINT NOT NULL UNIQUE,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL,
		category      TEXT NOT NULL,
		pickup_type   TEXT NOT NULL,
		address_line  TEXT NOT NULL,
		city          TEXT NOT NULL,
		state         TEXT NOT NULL,
		postal_code   TEXT NOT NULL,
		status        TEXT NOT NULL,
		donor_id      UUID NOT NULL,
		receiver_id   UUID,
		return_reason TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS donations_listing_idx
		ON donations (status, category, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS donation_candidacies (
		donation_id  UUID NOT NULL REFERENCES donations (id) ON DELETE CASCADE,
		applicant_id UUID NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (donation_id, applicant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS donation_progress (
		donation_id            UUID PRIMARY KEY REFERENCES donations (id) ON DELETE CASCADE,
		pickup_by_donor        BOOLEAN NOT NULL DEFAULT FALSE,
		pickup_by_receiver     BOOLEAN NOT NULL DEFAULT FALSE,
		completion_by_donor    BOOLEAN NOT NULL DEFAULT FALSE,
		completion_by_receiver BOOLEAN NOT NULL DEFAULT FALSE,
		return_signaled        BOOLEAN NOT NULL DEFAULT FALSE,
		return_by_donor        BOOLEAN NOT NULL DEFAULT FALSE,
		return_by_receiver     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at             TIMESTAMPTZ NOT NULL,
		updated_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS edit_history (
		id         UUID PRIMARY KEY,
		owner_type TEXT NOT NULL,
		owner_id   TEXT NOT NULL,
		changes    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS edit_history_owner_idx
		ON edit_history (owner_type, owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS donation_counters (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db Querier) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
