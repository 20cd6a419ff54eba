package models

import (
	"time"

	id "givetrack/pkg/domain"
)

// Candidacy is a registered interest by a non-donor user in an OPEN donation.
// At most one per (donation, applicant) pair; all candidacies for a donation
// are purged the instant a receiver is chosen.
type Candidacy struct {
	DonationID  id.DonationID `json:"donation_id"`
	ApplicantID id.UserID     `json:"applicant_id"`
	CreatedAt   time.Time     `json:"created_at"`
}
