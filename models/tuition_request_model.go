package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TuitionRequest records a learner's request for lessons at a negotiated
// rate. Once accepted, bookings created from it use the agreed rate instead
// of the tutor's standard hourly rate.
type TuitionRequest struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LearnerID       uuid.UUID `gorm:"not null" json:"learner_id"`
	TutorID         uuid.UUID `gorm:"not null" json:"tutor_id"`
	Subject         string    `gorm:"size:255" json:"subject"`
	Message         *string   `gorm:"type:text" json:"message"`
	AgreedRatePence int64     `gorm:"not null" json:"agreed_rate_pence"`
	Status          string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	Learner User `gorm:"foreignkey:LearnerID" json:"learner,omitempty"`
	Tutor   User `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	TuitionRequestPending  = "pending"
	TuitionRequestAccepted = "accepted"
	TuitionRequestDeclined = "declined"
)

func (r *TuitionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
