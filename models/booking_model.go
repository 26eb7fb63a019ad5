package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookingPending   = "pending"
	BookingPaid      = "paid"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
	BookingFailed    = "failed"
)

type Booking struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	LearnerID        uuid.UUID  `gorm:"not null;index" json:"learner_id"`
	TutorID          uuid.UUID  `gorm:"not null;index" json:"tutor_id"`
	StartAt          time.Time  `gorm:"not null" json:"start_at"`
	EndAt            time.Time  `gorm:"not null" json:"end_at"`
	Status           string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	HourlyRatePence  int64      `gorm:"not null" json:"hourly_rate_pence"`
	TuitionRequestID *uuid.UUID `gorm:"type:uuid" json:"tuition_request_id,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Learner User `gorm:"foreignkey:LearnerID" json:"learner,omitempty"`
	Tutor   User `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ChargePence is the full amount charged to the learner: agreed hourly rate
// prorated over the session duration, in minor units.
func (b *Booking) ChargePence() int64 {
	minutes := int64(b.EndAt.Sub(b.StartAt) / time.Minute)
	return b.HourlyRatePence * minutes / 60
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingPaid || b.Status == BookingCompleted
}
