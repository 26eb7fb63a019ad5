package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment is the checkout-session record for a booking. The unique booking id
// and gateway event id are what make webhook re-delivery a no-op.
type Payment struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID      uuid.UUID `gorm:"type:uuid;not null;unique" json:"booking_id"`
	AmountPence    int64     `gorm:"not null" json:"amount_pence"`
	Status         string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CheckoutID     *string   `gorm:"size:255;unique" json:"checkout_id,omitempty"`
	GatewayEventID *string   `gorm:"size:255;unique" json:"-"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
