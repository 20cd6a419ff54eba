package handler

import (
	"givetrack/internal/donation/models"
)

// createDonationRequest mirrors the caller-editable fields; the same shape
// serves create (all required) and update (all optional).
type donationFieldsRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	PickupType  *string `json:"pickup_type"`
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postal_code"`
}

func (r donationFieldsRequest) toFields() models.DonationFields {
	f := models.DonationFields{
		Title:       r.Title,
		Description: r.Description,
		AddressLine: r.AddressLine,
		City:        r.City,
		State:       r.State,
		PostalCode:  r.PostalCode,
	}
	if r.Category != nil {
		c := models.Category(*r.Category)
		f.Category = &c
	}
	if r.PickupType != nil {
		p := models.PickupType(*r.PickupType)
		f.PickupType = &p
	}
	return f
}

type chooseReceiverRequest struct {
	ReceiverID string `json:"receiver_id"`
}

type signalReturnRequest struct {
	Reason string `json:"reason"`
}

// progressUpdateRequest accepts any subset of the confirmation flags.
// Absent flags are left untouched; the service enforces ownership and
// checkpoint guards.
type progressUpdateRequest struct {
	PickupByDonor        *bool `json:"pickup_confirmed_by_donor"`
	PickupByReceiver     *bool `json:"pickup_confirmed_by_receiver"`
	CompletionByDonor    *bool `json:"completion_confirmed_by_donor"`
	CompletionByReceiver *bool `json:"completion_confirmed_by_receiver"`
	ReturnSignaled       *bool `json:"return_signaled_by_receiver"`
	ReturnByDonor        *bool `json:"return_confirmed_by_donor"`
	ReturnByReceiver     *bool `json:"return_confirmed_by_receiver"`
}

func (r progressUpdateRequest) toUpdates() []models.FlagUpdate {
	var updates []models.FlagUpdate
	add := func(v *bool, kind models.FlagKind, party models.Party) {
		if v != nil {
			updates = append(updates, models.FlagUpdate{
				Flag:  models.Flag{Kind: kind, Party: party},
				Value: *v,
			})
		}
	}
	add(r.PickupByDonor, models.FlagPickup, models.PartyDonor)
	add(r.PickupByReceiver, models.FlagPickup, models.PartyReceiver)
	add(r.CompletionByDonor, models.FlagCompletion, models.PartyDonor)
	add(r.CompletionByReceiver, models.FlagCompletion, models.PartyReceiver)
	add(r.ReturnSignaled, models.FlagReturnSignal, models.PartyReceiver)
	add(r.ReturnByDonor, models.FlagReturnConfirm, models.PartyDonor)
	add(r.ReturnByReceiver, models.FlagReturnConfirm, models.PartyReceiver)
	return updates
}
