package history

import (
	"context"
	"encoding/json"
	"fmt"

	"givetrack/internal/donation/models"
	"givetrack/internal/platform/postgres"
	id "givetrack/pkg/domain"
)

// Postgres persists history entries with the per-field changes as JSONB.
type Postgres struct {
	db postgres.Querier
}

func NewPostgres(db postgres.Querier) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, e *models.EditHistoryEntry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("marshal history changes: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO edit_history (id, owner_type, owner_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID.String(), string(e.OwnerType), e.OwnerID, changes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]*models.EditHistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, changes, created_at FROM edit_history
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY created_at DESC`,
		string(ownerType), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []*models.EditHistoryEntry{}
	for rows.Next() {
		e := &models.EditHistoryEntry{OwnerType: ownerType, OwnerID: ownerID}
		var (
			entryID string
			changes []byte
		)
		if err := rows.Scan(&entryID, &changes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		parsed, err := id.ParseHistoryID(entryID)
		if err != nil {
			return nil, err
		}
		e.ID = parsed
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal history changes: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

func (s *Postgres) PurgeByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM edit_history WHERE owner_type = $1 AND owner_id = $2`,
		string(ownerType), ownerID)
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
