package handler

import (
	"time"

	"givetrack/internal/donation/models"
	id "givetrack/pkg/domain"
)

type donationResponse struct {
	ID           string    `json:"id"`
	Number       int64     `json:"number"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	PickupType   string    `json:"pickup_type"`
	AddressLine  string    `json:"address_line,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Status       string    `json:"status"`
	DonorID      string    `json:"donor_id"`
	ReceiverID   string    `json:"receiver_id,omitempty"`
	ReturnReason string    `json:"return_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// toDonationResponse shapes a donation for a viewer. Once a receiver exists,
// non-parties see the precise contact fields blanked; city and state stay
// visible for discovery.
func toDonationResponse(d *models.Donation, viewer id.UserID) donationResponse {
	resp := donationResponse{
		ID:          d.ID.String(),
		Number:      d.Number,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category.String(),
		PickupType:  d.PickupType.String(),
		AddressLine: d.AddressLine,
		City:        d.City,
		State:       d.State,
		PostalCode:  d.PostalCode,
		Status:      d.Status.String(),
		DonorID:     d.DonorID.String(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.ReceiverID != nil {
		resp.ReceiverID = d.ReceiverID.String()
	}
	if d.IsParty(viewer) {
		resp.ReturnReason = d.ReturnReason
	}
	if d.HasReceiver() && !d.IsParty(viewer) {
		resp.AddressLine = ""
		resp.PostalCode = ""
	}
	return resp
}

type listResponse struct {
	Items []donationResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type candidacyResponse struct {
	DonationID  string    `json:"donation_id"`
	ApplicantID string    `json:"applicant_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCandidacyResponses(list []*models.Candidacy) []candidacyResponse {
	out := make([]candidacyResponse, 0, len(list))
	for _, c := range list {
		out = append(out, candidacyResponse{
			DonationID:  c.DonationID.String(),
			ApplicantID: c.ApplicantID.String(),
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}

type historyEntryResponse struct {
	ID        string                        `json:"id"`
	Changes   map[string]models.FieldChange `json:"changes"`
	CreatedAt time.Time                     `json:"created_at"`
}

func toHistoryResponses(entries []*models.EditHistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			ID:        e.ID.String(),
			Changes:   e.Changes,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
