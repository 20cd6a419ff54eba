package models

import (
	"time"

	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
)

// Party identifies which side of the exchange an actor is on.
type Party int

const (
	PartyDonor Party = iota
	PartyReceiver
)

func (p Party) String() string {
	if p == PartyDonor {
		return "donor"
	}
	return "receiver"
}

// FlagKind enumerates the confirmation checkpoints.
type FlagKind int

const (
	FlagPickup FlagKind = iota
	FlagCompletion
	FlagReturnSignal
	FlagReturnConfirm
)

// Flag is one of the seven confirmation flags, addressed by checkpoint and
// party instead of by field name. ReturnSignal only exists for the receiver.
type Flag struct {
	Kind  FlagKind
	Party Party
}

// BelongsTo reports whether an actor acting as party may write this flag.
// Total over the closed enumeration: every flag has exactly one owner.
func (f Flag) BelongsTo(party Party) bool {
	if f.Kind == FlagReturnSignal {
		return party == PartyReceiver
	}
	return f.Party == party
}

// FlagUpdate is a requested write of a single flag.
type FlagUpdate struct {
	Flag  Flag
	Value bool
}

// Progress is the bilateral confirmation ledger for a donation with a chosen
// receiver. One record per donation; exists iff the donation has a receiver.
type Progress struct {
	DonationID           id.DonationID `json:"donation_id"`
	PickupByDonor        bool          `json:"pickup_confirmed_by_donor"`
	PickupByReceiver     bool          `json:"pickup_confirmed_by_receiver"`
	CompletionByDonor    bool          `json:"completion_confirmed_by_donor"`
	CompletionByReceiver bool          `json:"completion_confirmed_by_receiver"`
	ReturnSignaled       bool          `json:"return_signaled_by_receiver"`
	ReturnByDonor        bool          `json:"return_confirmed_by_donor"`
	ReturnByReceiver     bool          `json:"return_confirmed_by_receiver"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// NewProgress creates the all-false ledger for a freshly chosen receiver.
func NewProgress(donationID id.DonationID, now time.Time) *Progress {
	return &Progress{DonationID: donationID, CreatedAt: now, UpdatedAt: now}
}

// PickupConfirmed reports whether both parties confirmed pickup.
func (p *Progress) PickupConfirmed() bool {
	return p.PickupByDonor && p.PickupByReceiver
}

// CompletionConfirmed reports whether both parties confirmed completion.
func (p *Progress) CompletionConfirmed() bool {
	return p.CompletionByDonor && p.CompletionByReceiver
}

// ReturnInProgress reports whether the receiver has signaled a return that
// has not completed yet.
func (p *Progress) ReturnInProgress() bool {
	return p.ReturnSignaled && !p.ReturnCompleted()
}

// ReturnCompleted reports whether both parties confirmed the return.
func (p *Progress) ReturnCompleted() bool {
	return p.ReturnSignaled && p.ReturnByDonor && p.ReturnByReceiver
}

// Get reads a single flag value.
func (p *Progress) Get(f Flag) bool {
	switch f.Kind {
	case FlagPickup:
		if f.Party == PartyDonor {
			return p.PickupByDonor
		}
		return p.PickupByReceiver
	case FlagCompletion:
		if f.Party == PartyDonor {
			return p.CompletionByDonor
		}
		return p.CompletionByReceiver
	case FlagReturnSignal:
		return p.ReturnSignaled
	default:
		if f.Party == PartyDonor {
			return p.ReturnByDonor
		}
		return p.ReturnByReceiver
	}
}

// CanSet validates a single flag write against the checkpoint guards:
//   - completion and return flags require pickup jointly confirmed
//   - return confirmations require a signaled return
//   - confirmations are one-way; clearing a set flag is rejected
//
// Re-asserting an already-set flag is an idempotent no-op, so a party that
// confirms twice does not fail.
func (p *Progress) CanSet(u FlagUpdate) error {
	current := p.Get(u.Flag)
	if current == u.Value {
		return nil
	}
	if !u.Value {
		return dErrors.New(dErrors.CodeInvariantViolation, "a confirmation cannot be withdrawn")
	}

	switch u.Flag.Kind {
	case FlagPickup:
		return nil
	case FlagCompletion:
		if !p.PickupConfirmed() {
			return dErrors.New(dErrors.CodeInvariantViolation, "completion requires pickup confirmed by both parties")
		}
	case FlagReturnSignal:
		if !p.PickupConfirmed() {
			return dErrors.New(dErrors.CodeInvariantViolation, "a return requires pickup confirmed by both parties")
		}
	case FlagReturnConfirm:
		if !p.ReturnSignaled {
			return dErrors.New(dErrors.CodeInvariantViolation, "no return has been signaled")
		}
	}
	return nil
}

// Set writes a single flag without validation. Call CanSet first.
func (p *Progress) Set(u FlagUpdate, now time.Time) {
	switch u.Flag.Kind {
	case FlagPickup:
		if u.Flag.Party == PartyDonor {
			p.PickupByDonor = u.Value
		} else {
			p.PickupByReceiver = u.Value
		}
	case FlagCompletion:
		if u.Flag.Party == PartyDonor {
			p.CompletionByDonor = u.Value
		} else {
			p.CompletionByReceiver = u.Value
		}
	case FlagReturnSignal:
		p.ReturnSignaled = u.Value
	case FlagReturnConfirm:
		if u.Flag.Party == PartyDonor {
			p.ReturnByDonor = u.Value
		} else {
			p.ReturnByReceiver = u.Value
		}
	}
	p.UpdatedAt = now
}

// Summary is the read-only view of progress exposed to the two parties.
type Summary struct {
	HasProgress         bool `json:"has_progress"`
	PickupConfirmed     bool `json:"pickup_confirmed"`
	CompletionConfirmed bool `json:"completion_confirmed"`
	ReturnInProgress    bool `json:"return_in_progress"`
	ReturnCompleted     bool `json:"return_completed"`
}

// Summarize builds the derived view. A nil progress yields the empty summary.
func Summarize(p *Progress) Summary {
	if p == nil {
		return Summary{}
	}
	return Summary{
		HasProgress:         true,
		PickupConfirmed:     p.PickupConfirmed(),
		CompletionConfirmed: p.CompletionConfirmed(),
		ReturnInProgress:    p.ReturnInProgress(),
		ReturnCompleted:     p.ReturnCompleted(),
	}
}

// DeriveStatus is the single source of truth for automatic status
// transitions after a flag mutation. It never moves a donation backwards:
// a completed return is handled by the lifecycle engine as a reopen cascade,
// which this function signals by returning StatusOpen.
func DeriveStatus(current Status, p *Progress) Status {
	if p == nil {
		return current
	}
	if p.ReturnCompleted() {
		return StatusOpen
	}
	if p.CompletionConfirmed() {
		return StatusCompleted
	}
	if p.PickupConfirmed() {
		return StatusPickedUp
	}
	return current
}
