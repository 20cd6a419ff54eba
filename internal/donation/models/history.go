package models

import (
	"time"

	id "givetrack/pkg/domain"
)

// OwnerType scopes an edit-history entry to the kind of entity it audits.
type OwnerType string

const (
	OwnerDonation OwnerType = "donation"
	OwnerProfile  OwnerType = "profile"
)

func (o OwnerType) IsValid() bool {
	return o == OwnerDonation || o == OwnerProfile
}

// FieldChange records one field's before/after values.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// EditHistoryEntry is an immutable audit record: one entry per successful
// mutation that changed at least one field. Never mutated or deleted once
// written, except cascade-delete with its owner.
type EditHistoryEntry struct {
	ID        id.HistoryID           `json:"id"`
	OwnerType OwnerType              `json:"owner_type"`
	OwnerID   string                 `json:"owner_id"`
	Changes   map[string]FieldChange `json:"changes"`
	CreatedAt time.Time              `json:"created_at"`
}
