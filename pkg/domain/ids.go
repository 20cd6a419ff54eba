// Package domain defines typed identifiers shared across services.
//
// Each entity gets its own UUID-backed type so IDs cannot be swapped across
// entity boundaries by accident; the compiler rejects a UserID where a
// DonationID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "givetrack/pkg/domain-errors"
)

// UserID identifies a registered user. Users themselves live in an external
// identity service; this service only carries their IDs.
type UserID uuid.UUID

// DonationID identifies a donation record.
type DonationID uuid.UUID

// HistoryID identifies an edit-history entry.
type HistoryID uuid.UUID

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }
func (id HistoryID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id HistoryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewDonationID allocates a fresh donation identifier.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// NewHistoryID allocates a fresh history-entry identifier.
func NewHistoryID() HistoryID { return HistoryID(uuid.New()) }

// ParseUserID parses and validates a user ID from its string form.
// Rejects empty input, malformed UUIDs, and the nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseDonationID parses and validates a donation ID from its string form.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DonationID{}, err
	}
	return DonationID(u), nil
}

// ParseHistoryID parses and validates a history-entry ID from its string form.
func ParseHistoryID(s string) (HistoryID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return HistoryID{}, err
	}
	return HistoryID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return u, nil
}
