// Package history computes and persists field-level edit diffs for audited
// entities. Entries are append-only; the only delete path is the cascade
// when the owner itself is removed.
package history

import (
	"context"
	"time"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
)

// Store persists history entries.
type Store interface {
	Append(ctx context.Context, e *models.EditHistoryEntry) error
	ListByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]*models.EditHistoryEntry, error)
	PurgeByOwner(ctx context.Context, ownerType models.OwnerType, ownerID string) (int, error)
}

// Recorder is the edit-history component.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Diff compares the provided fields of next against old. Only keys present
// in next participate; unchanged values are dropped. An empty result means
// the edit was a no-op and nothing should be recorded.
func Diff(old, next map[string]string) map[string]models.FieldChange {
	changes := make(map[string]models.FieldChange)
	for field, newValue := range next {
		if oldValue, ok := old[field]; !ok || oldValue != newValue {
			changes[field] = models.FieldChange{Old: old[field], New: newValue}
		}
	}
	return changes
}

// Record appends an immutable entry with a server-assigned timestamp.
// An empty diff writes nothing and returns nil.
func (r *Recorder) Record(ctx context.Context, ownerType models.OwnerType, ownerID string, changes map[string]models.FieldChange, now time.Time) (*models.EditHistoryEntry, error) {
	if len(changes) == 0 {
		return nil, nil
	}
	if !ownerType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInternal, "unknown history owner type")
	}
	entry := &models.EditHistoryEntry{
		ID:        id.NewHistoryID(),
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Changes:   changes,
		CreatedAt: now,
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record edit history")
	}
	return entry, nil
}

// List returns entries newest-first.
func (r *Recorder) List(ctx context.Context, ownerType models.OwnerType, ownerID string) ([]*models.EditHistoryEntry, error) {
	entries, err := r.store.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list edit history")
	}
	return entries, nil
}

// Purge removes all entries for an owner as part of a cascade delete.
func (r *Recorder) Purge(ctx context.Context, ownerType models.OwnerType, ownerID string) (int, error) {
	n, err := r.store.PurgeByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge edit history")
	}
	return n, nil
}
