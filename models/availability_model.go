package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilityRule is one recurring published teaching window, e.g.
// "Mondays 09:00-17:00". Slot generation from rules lives in the frontend;
// the backend only consults rules when validating a requested slot.
type AvailabilityRule struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TutorID     uuid.UUID `gorm:"not null;index" json:"-"`
	Weekday     int       `gorm:"not null" json:"weekday"`
	StartMinute int       `gorm:"not null" json:"start_minute"`
	EndMinute   int       `gorm:"not null" json:"end_minute"`

	Tutor Tutor `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`
}

func (r *AvailabilityRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
