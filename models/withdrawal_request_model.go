package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalPaid     = "paid"
)

// WithdrawalRequest is a tutor's draw-down against available balance.
// BankDetails is snapshotted (masked) at request time so later edits to the
// tutor profile don't retroactively alter an in-flight request.
type WithdrawalRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TutorID     uuid.UUID `gorm:"not null;index" json:"tutor_id"`
	AmountPence int64     `gorm:"not null" json:"amount_pence"`
	Status      string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	BankDetails string    `gorm:"size:255;not null" json:"bank_details"`

	AdminNotes  *string    `gorm:"type:text" json:"admin_notes,omitempty"`
	PayoutRef   *string    `gorm:"size:255" json:"payout_ref,omitempty"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	Tutor Tutor `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
