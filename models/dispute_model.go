package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DisputeOpen     = "open"
	DisputeResolved = "resolved"
)

const (
	OutcomeReleaseToTutor = "release_payment_to_tutor"
	OutcomeFullRefund     = "full_refund"
	OutcomePartialRefund  = "partial_refund"
)

type Dispute struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;unique" json:"booking_id"`
	Status    string    `gorm:"size:20;not null;default:'open'" json:"status"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`

	LearnerEvidence      *string    `gorm:"type:text" json:"learner_evidence,omitempty"`
	LearnerAttachmentURL *string    `gorm:"size:512" json:"learner_attachment_url,omitempty"`
	LearnerSubmittedAt   *time.Time `json:"learner_submitted_at,omitempty"`
	TutorEvidence        *string    `gorm:"type:text" json:"tutor_evidence,omitempty"`
	TutorAttachmentURL   *string    `gorm:"size:512" json:"tutor_attachment_url,omitempty"`
	TutorSubmittedAt     *time.Time `json:"tutor_submitted_at,omitempty"`

	Outcome           *string    `gorm:"size:40" json:"outcome,omitempty"`
	RefundAmountPence *int64     `json:"refund_amount_pence,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy        *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Dispute) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
