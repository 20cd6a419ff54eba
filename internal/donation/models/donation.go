package models

import (
	"strings"
	"time"

	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
)

// Status is the top-level lifecycle state of a donation.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPickedUp   Status = "PICKED_UP"
	StatusCompleted  Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPickedUp, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus parses a status filter value from its wire form.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(s))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown status: "+s)
	}
	return status, nil
}

// Category classifies the donated item.
type Category string

const (
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryBooks       Category = "books"
	CategoryToys        Category = "toys"
	CategoryAppliances  Category = "appliances"
	CategoryOther       Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryFurniture, CategoryClothing, CategoryElectronics,
		CategoryBooks, CategoryToys, CategoryAppliances, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// PickupType describes how the item changes hands.
type PickupType string

const (
	PickupAtLocation       PickupType = "at_location"
	PickupArrangeWithDonor PickupType = "arrange_with_donor"
)

func (p PickupType) IsValid() bool {
	return p == PickupAtLocation || p == PickupArrangeWithDonor
}

func (p PickupType) String() string { return string(p) }

// Donation is the aggregate root for an exchanged item.
//
// Invariants:
//   - ReceiverID is set iff Status != OPEN
//   - Status = OPEN implies ReceiverID is nil and ReturnReason is empty
//   - COMPLETED is terminal
//   - DonorID never equals ReceiverID
//   - Number and DonorID are immutable after creation
type Donation struct {
	ID           id.DonationID `json:"id"`
	Number       int64         `json:"number"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     Category      `json:"category"`
	PickupType   PickupType    `json:"pickup_type"`
	AddressLine  string        `json:"address_line"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	PostalCode   string        `json:"postal_code"`
	Status       Status        `json:"status"`
	DonorID      id.UserID     `json:"donor_id"`
	ReceiverID   *id.UserID    `json:"receiver_id,omitempty"`
	ReturnReason string        `json:"return_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsParty reports whether userID is the donor or the current receiver.
// Supports the presentation layer's contact-field redaction.
func (d *Donation) IsParty(userID id.UserID) bool {
	if d.DonorID == userID {
		return true
	}
	return d.ReceiverID != nil && *d.ReceiverID == userID
}

// HasReceiver reports whether a receiver has been chosen.
func (d *Donation) HasReceiver() bool { return d.ReceiverID != nil }

// AssignReceiver moves an OPEN donation to IN_PROGRESS with the given
// receiver. The caller has already validated the candidacy.
func (d *Donation) AssignReceiver(receiverID id.UserID, now time.Time) error {
	if d.Status != StatusOpen {
		return dErrors.New(dErrors.CodeInvariantViolation, "donation already has a receiver")
	}
	if receiverID == d.DonorID {
		return dErrors.New(dErrors.CodeInvariantViolation, "donor cannot receive their own donation")
	}
	d.ReceiverID = &receiverID
	d.Status = StatusInProgress
	d.UpdatedAt = now
	return nil
}

// Reopen clears the receiver and return state, returning the donation to the
// OPEN pool. Used by cancel-receiving and by a completed return cycle.
func (d *Donation) Reopen(now time.Time) {
	d.ReceiverID = nil
	d.ReturnReason = ""
	d.Status = StatusOpen
	d.UpdatedAt = now
}

// DonationFields carries the caller-editable fields for create and update.
// Pointer fields distinguish "not provided" from zero values on update.
type DonationFields struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Category    *Category   `json:"category,omitempty"`
	PickupType  *PickupType `json:"pickup_type,omitempty"`
	AddressLine *string     `json:"address_line,omitempty"`
	City        *string     `json:"city,omitempty"`
	State       *string     `json:"state,omitempty"`
	PostalCode  *string     `json:"postal_code,omitempty"`
}

const (
	titleMinLen       = 3
	titleMaxLen       = 120
	descriptionMaxLen = 2000
)

// NewDonation validates fields and constructs an OPEN donation. All fields
// are required on creation except address details when the donor arranges
// pickup personally.
func NewDonation(donationID id.DonationID, number int64, donorID id.UserID, f DonationFields, now time.Time) (*Donation, error) {
	fieldErrs := map[string]string{}

	title := deref(f.Title)
	if len(title) < titleMinLen || len(title) > titleMaxLen {
		fieldErrs["title"] = "must be between 3 and 120 characters"
	}
	if len(deref(f.Description)) > descriptionMaxLen {
		fieldErrs["description"] = "must be at most 2000 characters"
	}

	var category Category
	if f.Category == nil || !f.Category.IsValid() {
		fieldErrs["category"] = "must be one of the known categories"
	} else {
		category = *f.Category
	}

	var pickupType PickupType
	if f.PickupType == nil || !f.PickupType.IsValid() {
		fieldErrs["pickup_type"] = "must be at_location or arrange_with_donor"
	} else {
		pickupType = *f.PickupType
	}

	if pickupType == PickupAtLocation {
		if deref(f.AddressLine) == "" {
			fieldErrs["address_line"] = "required for at_location pickup"
		}
		if deref(f.PostalCode) == "" {
			fieldErrs["postal_code"] = "required for at_location pickup"
		}
	}
	if deref(f.City) == "" {
		fieldErrs["city"] = "is required"
	}
	if deref(f.State) == "" {
		fieldErrs["state"] = "is required"
	}

	if len(fieldErrs) > 0 {
		return nil, dErrors.NewValidation("invalid donation", fieldErrs)
	}

	return &Donation{
		ID:          donationID,
		Number:      number,
		Title:       title,
		Description: deref(f.Description),
		Category:    category,
		PickupType:  pickupType,
		AddressLine: deref(f.AddressLine),
		City:        deref(f.City),
		State:       deref(f.State),
		PostalCode:  deref(f.PostalCode),
		Status:      StatusOpen,
		DonorID:     donorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyFields mutates the editable fields that are present in f, after
// validating them against the same rules as creation. Returns the list of
// field names that changed so the caller can record an edit-history diff.
func (d *Donation) ApplyFields(f DonationFields, now time.Time) error {
	fieldErrs := map[string]string{}

	if f.Title != nil && (len(*f.Title) < titleMinLen || len(*f.Title) > titleMaxLen) {
		fieldErrs["title"] = "must be between 3 and 120 characters"
	}
	if f.Description != nil && len(*f.Description) > descriptionMaxLen {
		fieldErrs["description"] = "must be at most 2000 characters"
	}
	if f.Category != nil && !f.Category.IsValid() {
		fieldErrs["category"] = "must be one of the known categories"
	}
	if f.PickupType != nil && !f.PickupType.IsValid() {
		fieldErrs["pickup_type"] = "must be at_location or arrange_with_donor"
	}
	if f.City != nil && *f.City == "" {
		fieldErrs["city"] = "must not be empty"
	}
	if f.State != nil && *f.State == "" {
		fieldErrs["state"] = "must not be empty"
	}
	if len(fieldErrs) > 0 {
		return dErrors.NewValidation("invalid donation", fieldErrs)
	}

	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.Category != nil {
		d.Category = *f.Category
	}
	if f.PickupType != nil {
		d.PickupType = *f.PickupType
	}
	if f.AddressLine != nil {
		d.AddressLine = *f.AddressLine
	}
	if f.City != nil {
		d.City = *f.City
	}
	if f.State != nil {
		d.State = *f.State
	}
	if f.PostalCode != nil {
		d.PostalCode = *f.PostalCode
	}
	d.UpdatedAt = now
	return nil
}

// AuditFields projects the caller-editable fields into the string form used
// by the edit-history recorder.
func (d *Donation) AuditFields() map[string]string {
	return map[string]string{
		"title":        d.Title,
		"description":  d.Description,
		"category":     d.Category.String(),
		"pickup_type":  d.PickupType.String(),
		"address_line": d.AddressLine,
		"city":         d.City,
		"state":        d.State,
		"postal_code":  d.PostalCode,
	}
}

// ProvidedAuditFields projects only the fields present in f, for diffing a
// partial update against a snapshot.
func (f DonationFields) ProvidedAuditFields() map[string]string {
	out := map[string]string{}
	if f.Title != nil {
		out["title"] = *f.Title
	}
	if f.Description != nil {
		out["description"] = *f.Description
	}
	if f.Category != nil {
		out["category"] = f.Category.String()
	}
	if f.PickupType != nil {
		out["pickup_type"] = f.PickupType.String()
	}
	if f.AddressLine != nil {
		out["address_line"] = *f.AddressLine
	}
	if f.City != nil {
		out["city"] = *f.City
	}
	if f.State != nil {
		out["state"] = *f.State
	}
	if f.PostalCode != nil {
		out["postal_code"] = *f.PostalCode
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
