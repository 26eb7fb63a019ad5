package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"gorm.io/gorm"
)

// While a dispute is open, the escrowed ledger entry for its booking stays in
// pending_release: the completion sweep sees the open dispute and skips the
// release, and only resolution moves the money. Opening a dispute after the
// sweep has already released the entry re-escrows it first.

// OpenDispute raises a dispute on a paid or completed booking. One dispute
// per booking, learner-initiated.
func OpenDispute(learnerID, bookingID uuid.UUID, reason string) (*models.Dispute, error) {
	if reason == "" {
		return nil, &ValidationError{Msg: "a reason is required to open a dispute"}
	}

	var dispute models.Dispute
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "booking"}
			}
			return err
		}
		if booking.LearnerID != learnerID {
			return &AuthorizationError{Msg: "this is not your booking"}
		}
		if booking.Status != models.BookingPaid && booking.Status != models.BookingCompleted {
			return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: "dispute"}
		}

		var existing int64
		if err := tx.Model(&models.Dispute{}).Where("booking_id = ?", bookingID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &ConflictError{Msg: "a dispute already exists for this booking"}
		}

		// A dispute on a completed booking arrives after the sweep has
		// already released the escrow; pull the released funds back on
		// hold so resolution still decides where they go. Funds already
		// withdrawn are gone and can no longer be disputed.
		result := tx.Model(&models.LedgerEntry{}).
			Where("booking_id = ? AND state = ?", bookingID, models.EntryAvailable).
			Updates(map[string]interface{}{"state": models.EntryPendingRelease, "released_at": nil})
		if result.Error != nil {
			return result.Error
		}

		var held int64
		if err := tx.Model(&models.LedgerEntry{}).
			Where("booking_id = ? AND state = ?", bookingID, models.EntryPendingRelease).
			Count(&held).Error; err != nil {
			return err
		}
		if held == 0 {
			return &ConflictError{Msg: "the funds for this booking have already been paid out"}
		}

		dispute = models.Dispute{
			BookingID: bookingID,
			Status:    models.DisputeOpen,
			Reason:    reason,
		}
		return tx.Create(&dispute).Error
	})
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// SubmitEvidence records one party's written account, at most once per party
// while the dispute is open.
func SubmitEvidence(disputeID, actorID uuid.UUID, evidence string, attachmentURL *string) error {
	if evidence == "" {
		return &ValidationError{Msg: "evidence text is required"}
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		var dispute models.Dispute
		if err := tx.Preload("Booking").First(&dispute, "id = ?", disputeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "dispute"}
			}
			return err
		}
		if dispute.Status != models.DisputeOpen {
			return &InvalidStateTransitionError{Entity: "dispute", From: dispute.Status, Action: "submit evidence for"}
		}

		now := time.Now()
		updates := map[string]interface{}{}
		switch actorID {
		case dispute.Booking.LearnerID:
			if dispute.LearnerSubmittedAt != nil {
				return &ValidationError{Msg: "you have already submitted evidence for this dispute"}
			}
			updates["learner_evidence"] = evidence
			updates["learner_attachment_url"] = attachmentURL
			updates["learner_submitted_at"] = now
		case dispute.Booking.TutorID:
			if dispute.TutorSubmittedAt != nil {
				return &ValidationError{Msg: "you have already submitted evidence for this dispute"}
			}
			updates["tutor_evidence"] = evidence
			updates["tutor_attachment_url"] = attachmentURL
			updates["tutor_submitted_at"] = now
		default:
			return &AuthorizationError{Msg: "you are not a party to this dispute"}
		}

		result := tx.Model(&models.Dispute{}).
			Where("id = ? AND status = ?", disputeID, models.DisputeOpen).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidStateTransitionError{Entity: "dispute", From: dispute.Status, Action: "submit evidence for"}
		}
		return nil
	})
}

// ResolveDispute is the admin adjudication. Exactly one of three outcomes is
// applied to the escrowed entry; resolution is terminal, so a second resolve
// finds the dispute already closed and is rejected. A failed ledger move
// rolls the whole resolution back — there is no partially-resolved state.
func ResolveDispute(disputeID, adminID uuid.UUID, outcome string, refundPence *int64) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var dispute models.Dispute
		if err := tx.Preload("Booking").First(&dispute, "id = ?", disputeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "dispute"}
			}
			return err
		}
		if dispute.Status != models.DisputeOpen {
			return &InvalidStateTransitionError{Entity: "dispute", From: dispute.Status, Action: "resolve"}
		}

		var entry models.LedgerEntry
		if err := tx.First(&entry, "booking_id = ? AND state = ?", dispute.BookingID, models.EntryPendingRelease).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "ledger entry"}
			}
			return err
		}

		now := time.Now()
		result := tx.Model(&models.Dispute{}).
			Where("id = ? AND status = ?", disputeID, models.DisputeOpen).
			Updates(map[string]interface{}{
				"status":              models.DisputeResolved,
				"outcome":             outcome,
				"refund_amount_pence": refundPence,
				"resolved_at":         now,
				"resolved_by":         adminID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidStateTransitionError{Entity: "dispute", From: dispute.Status, Action: "resolve"}
		}

		switch outcome {
		case models.OutcomeReleaseToTutor:
			return Release(tx, entry.ID)
		case models.OutcomeFullRefund:
			return Refund(tx, entry.ID, entry.AmountPence)
		case models.OutcomePartialRefund:
			if refundPence == nil {
				return &ValidationError{Msg: "a refund amount is required for a partial refund"}
			}
			return Refund(tx, entry.ID, *refundPence)
		default:
			return &ValidationError{Msg: "unknown dispute outcome"}
		}
	})
}
