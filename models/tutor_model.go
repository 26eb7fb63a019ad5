package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Tutor struct {
	UserID          uuid.UUID `gorm:"primary_key" json:"user_id"`
	Headline        *string   `gorm:"size:255" json:"headline"`
	Bio             *string   `gorm:"type:text" json:"bio"`
	Status          string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	HourlyRatePence int64     `gorm:"not null;default:0" json:"hourly_rate_pence"`

	BankAccountHolder *string `gorm:"size:255" json:"-"`
	BankName          *string `gorm:"size:255" json:"-"`
	BankAccountNumber *string `gorm:"size:34" json:"-"`
	BankSortCode      *string `gorm:"size:10" json:"-"`

	User      User      `gorm:"foreignkey:UserID" json:"user"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (t *Tutor) HasBankDetails() bool {
	return t.BankAccountHolder != nil && t.BankAccountNumber != nil && t.BankSortCode != nil
}

// MaskedBankDetails renders the account for display, e.g. "Barclays ****6789".
func (t *Tutor) MaskedBankDetails() string {
	if !t.HasBankDetails() {
		return ""
	}
	number := *t.BankAccountNumber
	if len(number) > 4 {
		number = number[len(number)-4:]
	}
	bank := ""
	if t.BankName != nil {
		bank = *t.BankName + " "
	}
	return fmt.Sprintf("%s****%s", bank, number)
}
