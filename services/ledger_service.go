package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/models"
	"gorm.io/gorm"
)

// The ledger is append-only: entries are created on confirmed payment and
// only ever move forward through their states. Every mutation here is a
// guarded update (WHERE state = <legal source>) so a duplicate or replayed
// call finds zero rows and is rejected instead of double-applied.

type WalletSummary struct {
	PendingPence   int64 `json:"pending_pence"`
	AvailablePence int64 `json:"available_pence"`
	WithdrawnPence int64 `json:"withdrawn_pence"`
}

// PostPending records escrowed funds for a tutor when a booking's payment is
// confirmed. At most one origin entry may exist per booking.
func PostPending(tx *gorm.DB, tutorID, bookingID uuid.UUID, amountPence int64) (*models.LedgerEntry, error) {
	if amountPence <= 0 {
		return nil, &ValidationError{Msg: "ledger amount must be positive"}
	}

	var count int64
	if err := tx.Model(&models.LedgerEntry{}).Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Msg: "a ledger entry already exists for this booking"}
	}

	entry := models.LedgerEntry{
		TutorID:     tutorID,
		BookingID:   bookingID,
		AmountPence: amountPence,
		State:       models.EntryPendingRelease,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Release moves escrowed funds into the tutor's withdrawable balance.
func Release(tx *gorm.DB, entryID uuid.UUID) error {
	now := time.Now()
	result := tx.Model(&models.LedgerEntry{}).
		Where("id = ? AND state = ?", entryID, models.EntryPendingRelease).
		Updates(map[string]interface{}{"state": models.EntryAvailable, "released_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entryTransitionError(tx, entryID, "release")
	}
	return nil
}

// Refund reverses some or all of an escrowed entry. A partial refund shrinks
// the original entry to the refunded amount and releases the residual to the
// tutor as a fresh available entry, so the booking's lifetime entries still
// sum to the original charge.
func Refund(tx *gorm.DB, entryID uuid.UUID, refundPence int64) error {
	var entry models.LedgerEntry
	if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Entity: "ledger entry"}
		}
		return err
	}

	if refundPence <= 0 || refundPence > entry.AmountPence {
		return &ValidationError{Msg: "refund amount must be positive and no greater than the escrowed amount"}
	}

	now := time.Now()
	if refundPence == entry.AmountPence {
		result := tx.Model(&models.LedgerEntry{}).
			Where("id = ? AND state = ?", entryID, models.EntryPendingRelease).
			Updates(map[string]interface{}{
				"state":                 models.EntryRefunded,
				"refunded_amount_pence": refundPence,
				"refunded_at":           now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return entryTransitionError(tx, entryID, "refund")
		}
		return nil
	}

	residualPence := entry.AmountPence - refundPence
	result := tx.Model(&models.LedgerEntry{}).
		Where("id = ? AND state = ?", entryID, models.EntryPendingRelease).
		Updates(map[string]interface{}{
			"state":                 models.EntryPartiallyRefunded,
			"amount_pence":          refundPence,
			"refunded_amount_pence": refundPence,
			"refunded_at":           now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entryTransitionError(tx, entryID, "refund")
	}

	residual := models.LedgerEntry{
		TutorID:     entry.TutorID,
		BookingID:   entry.BookingID,
		AmountPence: residualPence,
		State:       models.EntryAvailable,
		ReleasedAt:  &now,
	}
	return tx.Create(&residual).Error
}

// MarkWithdrawn converts available entries to withdrawn, oldest release
// first, until the paid-out amount is covered. When the amount lands inside
// an entry, that entry is split so the remainder stays available.
func MarkWithdrawn(tx *gorm.DB, tutorID uuid.UUID, amountPence int64, withdrawalID uuid.UUID, payoutRef *string) error {
	if amountPence <= 0 {
		return &ValidationError{Msg: "withdrawal amount must be positive"}
	}

	var entries []models.LedgerEntry
	if err := tx.Where("tutor_id = ? AND state = ?", tutorID, models.EntryAvailable).
		Order("released_at asc, created_at asc").
		Find(&entries).Error; err != nil {
		return err
	}

	now := time.Now()
	remaining := amountPence
	for _, entry := range entries {
		if remaining == 0 {
			break
		}

		consumed := entry.AmountPence
		var leftover int64
		if consumed > remaining {
			leftover = consumed - remaining
			consumed = remaining
		}

		result := tx.Model(&models.LedgerEntry{}).
			Where("id = ? AND state = ?", entry.ID, models.EntryAvailable).
			Updates(map[string]interface{}{
				"state":                 models.EntryWithdrawn,
				"amount_pence":          consumed,
				"withdrawn_at":          now,
				"withdrawal_request_id": withdrawalID,
				"payout_ref":            payoutRef,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return entryTransitionError(tx, entry.ID, "withdraw")
		}

		if leftover > 0 {
			rest := models.LedgerEntry{
				TutorID:     entry.TutorID,
				BookingID:   entry.BookingID,
				AmountPence: leftover,
				State:       models.EntryAvailable,
				ReleasedAt:  entry.ReleasedAt,
			}
			if err := tx.Create(&rest).Error; err != nil {
				return err
			}
		}
		remaining -= consumed
	}

	if remaining > 0 {
		return &ValidationError{Msg: "available balance is lower than the payout amount"}
	}
	return nil
}

// Summarize folds the tutor's entries into balances. It is recomputed from
// entries on every call, never cached as a running total.
func Summarize(db *gorm.DB, tutorID uuid.UUID) (WalletSummary, error) {
	var rows []struct {
		State string
		Total int64
	}
	err := db.Model(&models.LedgerEntry{}).
		Select("state, COALESCE(SUM(amount_pence), 0) as total").
		Where("tutor_id = ?", tutorID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return WalletSummary{}, err
	}

	var summary WalletSummary
	for _, row := range rows {
		switch row.State {
		case models.EntryPendingRelease:
			summary.PendingPence = row.Total
		case models.EntryAvailable:
			summary.AvailablePence = row.Total
		case models.EntryWithdrawn:
			summary.WithdrawnPence = row.Total
		}
	}
	return summary, nil
}

// WithdrawableBalance is the available balance minus amounts already spoken
// for by in-flight withdrawal requests.
func WithdrawableBalance(db *gorm.DB, tutorID uuid.UUID) (int64, error) {
	summary, err := Summarize(db, tutorID)
	if err != nil {
		return 0, err
	}

	var reserved int64
	err = db.Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount_pence), 0)").
		Where("tutor_id = ? AND status IN ?", tutorID, []string{models.WithdrawalPending, models.WithdrawalApproved}).
		Scan(&reserved).Error
	if err != nil {
		return 0, err
	}
	return summary.AvailablePence - reserved, nil
}

func entryTransitionError(tx *gorm.DB, entryID uuid.UUID, action string) error {
	var entry models.LedgerEntry
	if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
		return &NotFoundError{Entity: "ledger entry"}
	}
	return &InvalidStateTransitionError{Entity: "ledger entry", From: entry.State, Action: action}
}
