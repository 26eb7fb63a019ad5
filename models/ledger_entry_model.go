package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EntryPendingRelease    = "pending_release"
	EntryAvailable         = "available"
	EntryRefunded          = "refunded"
	EntryPartiallyRefunded = "partially_refunded"
	EntryWithdrawn         = "withdrawn"
)

// LedgerEntry is one discrete monetary movement for a tutor, always tied to
// the booking it originated from. Entries move forward:
// pending_release -> available|refunded|partially_refunded, and
// available -> withdrawn. The one backward move is the dispute hold, which
// re-escrows an available entry (available -> pending_release) until the
// dispute is resolved. Balances are always recomputed from entries.
type LedgerEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TutorID     uuid.UUID `gorm:"not null;index" json:"tutor_id"`
	BookingID   uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	AmountPence int64     `gorm:"not null" json:"amount_pence"`
	State       string    `gorm:"size:20;not null;default:'pending_release'" json:"state"`

	RefundedAmountPence int64      `gorm:"not null;default:0" json:"refunded_amount_pence"`
	ReleasedAt          *time.Time `json:"released_at,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`
	WithdrawnAt         *time.Time `json:"withdrawn_at,omitempty"`

	WithdrawalRequestID *uuid.UUID `gorm:"type:uuid" json:"withdrawal_request_id,omitempty"`
	PayoutRef           *string    `gorm:"size:255" json:"payout_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
