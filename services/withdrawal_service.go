package services

import (
	"time"

	"github.com/google/uuid"
	config "github.com/jmwangi/tutorlink/configs"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"gorm.io/gorm"
)

const defaultMinWithdrawalPence = 1000

// MinWithdrawalPence is the configured floor for a withdrawal request.
func MinWithdrawalPence() int64 {
	return config.ConfigInt64("MIN_WITHDRAWAL_PENCE", defaultMinWithdrawalPence)
}

// CreateWithdrawalRequest opens a draw-down against the tutor's available
// balance. It reserves the amount (later requests see a reduced withdrawable
// balance) but mutates no ledger entries — only marking the request paid
// moves money.
func CreateWithdrawalRequest(tutorID uuid.UUID, amountPence int64) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var tutor models.Tutor
		if err := tx.First(&tutor, "user_id = ?", tutorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "tutor"}
			}
			return err
		}
		if !tutor.HasBankDetails() {
			return &ValidationError{Msg: "add your bank details before requesting a withdrawal"}
		}
		if amountPence < MinWithdrawalPence() {
			return &ValidationError{Msg: "amount is below the minimum withdrawal"}
		}

		// Serialize concurrent requests for the same tutor on its row lock.
		if err := tx.Model(&models.Tutor{}).Where("user_id = ?", tutorID).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		var inFlight int64
		err := tx.Model(&models.WithdrawalRequest{}).
			Where("tutor_id = ? AND status IN ?", tutorID, []string{models.WithdrawalPending, models.WithdrawalApproved}).
			Count(&inFlight).Error
		if err != nil {
			return err
		}
		if inFlight > 0 {
			return &ConflictError{Msg: "you already have a withdrawal request in progress"}
		}

		withdrawable, err := WithdrawableBalance(tx, tutorID)
		if err != nil {
			return err
		}
		if amountPence > withdrawable {
			return &ValidationError{Msg: "insufficient available balance"}
		}

		request = models.WithdrawalRequest{
			TutorID:     tutorID,
			AmountPence: amountPence,
			Status:      models.WithdrawalPending,
			BankDetails: tutor.MaskedBankDetails(),
			RequestedAt: time.Now(),
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ApproveWithdrawalRequest authorizes a manual payout. No funds move yet.
func ApproveWithdrawalRequest(requestID uuid.UUID, adminNotes *string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", requestID, models.WithdrawalPending).
			Updates(map[string]interface{}{"status": models.WithdrawalApproved, "approved_at": now, "admin_notes": adminNotes})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return withdrawalTransitionError(tx, requestID, "approve")
		}
		return nil
	})
}

// RejectWithdrawalRequest closes the request and releases its reservation.
func RejectWithdrawalRequest(requestID uuid.UUID, adminNotes *string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", requestID, models.WithdrawalPending).
			Updates(map[string]interface{}{"status": models.WithdrawalRejected, "admin_notes": adminNotes})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return withdrawalTransitionError(tx, requestID, "reject")
		}
		return nil
	})
}

// MarkWithdrawalPaid records that the approved payout was sent. This is the
// only operation that converts available ledger entries to withdrawn.
func MarkWithdrawalPaid(requestID uuid.UUID, payoutRef *string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var request models.WithdrawalRequest
		if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "withdrawal request"}
			}
			return err
		}

		now := time.Now()
		result := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", requestID, models.WithdrawalApproved).
			Updates(map[string]interface{}{"status": models.WithdrawalPaid, "paid_at": now, "payout_ref": payoutRef})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return withdrawalTransitionError(tx, requestID, "mark paid")
		}

		return MarkWithdrawn(tx, request.TutorID, request.AmountPence, request.ID, payoutRef)
	})
}

func withdrawalTransitionError(tx *gorm.DB, requestID uuid.UUID, action string) error {
	var request models.WithdrawalRequest
	if err := tx.First(&request, "id = ?", requestID).Error; err != nil {
		return &NotFoundError{Entity: "withdrawal request"}
	}
	return &InvalidStateTransitionError{Entity: "withdrawal request", From: request.Status, Action: action}
}
