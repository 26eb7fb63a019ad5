package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"gorm.io/gorm"
)

// CreateBooking reserves a slot for a learner and opens a pending payment.
// The slot must fall inside the tutor's published availability and must not
// collide with another active booking. Nothing is posted to the ledger until
// the gateway confirms payment.
func CreateBooking(learnerID, tutorID uuid.UUID, startAt, endAt time.Time, tuitionRequestID *uuid.UUID) (*models.Booking, error) {
	if !endAt.After(startAt) {
		return nil, &ValidationError{Msg: "session end must be after its start"}
	}
	if startAt.Before(time.Now()) {
		return nil, &ValidationError{Msg: "session cannot start in the past"}
	}

	var tutor models.Tutor
	if err := database.DB.First(&tutor, "user_id = ?", tutorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "tutor"}
		}
		return nil, err
	}
	if tutor.Status != "active" {
		return nil, &ValidationError{Msg: "tutor is not accepting bookings"}
	}

	ratePence := tutor.HourlyRatePence
	if tuitionRequestID != nil {
		var request models.TuitionRequest
		if err := database.DB.First(&request, "id = ?", tuitionRequestID).Error; err != nil {
			return nil, &NotFoundError{Entity: "tuition request"}
		}
		if request.LearnerID != learnerID || request.TutorID != tutorID {
			return nil, &AuthorizationError{Msg: "tuition request belongs to a different learner or tutor"}
		}
		if request.Status != models.TuitionRequestAccepted {
			return nil, &ValidationError{Msg: "tuition request has not been accepted"}
		}
		ratePence = request.AgreedRatePence
	}
	if ratePence <= 0 {
		return nil, &ValidationError{Msg: "tutor has no hourly rate set"}
	}

	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Touch the tutor row so concurrent creations for the same tutor
		// serialize on its row lock.
		if err := tx.Model(&models.Tutor{}).Where("user_id = ?", tutorID).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		available, err := IsSlotAvailable(tx, tutorID, startAt, endAt)
		if err != nil {
			return err
		}
		if !available {
			return &ValidationError{Msg: "slot is outside the tutor's published availability"}
		}

		var clashing int64
		err = tx.Model(&models.Booking{}).
			Where("tutor_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
				tutorID, []string{models.BookingPending, models.BookingPaid, models.BookingCompleted}, endAt, startAt).
			Count(&clashing).Error
		if err != nil {
			return err
		}
		if clashing > 0 {
			return &ConflictError{Msg: "another booking already occupies this slot"}
		}

		booking = models.Booking{
			LearnerID:        learnerID,
			TutorID:          tutorID,
			StartAt:          startAt,
			EndAt:            endAt,
			Status:           models.BookingPending,
			HourlyRatePence:  ratePence,
			TuitionRequestID: tuitionRequestID,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		payment := models.Payment{
			BookingID:   booking.ID,
			AmountPence: booking.ChargePence(),
			Status:      models.PaymentPending,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ConfirmPayment applies a verified gateway confirmation: pending -> paid
// plus exactly one escrow ledger entry. It is driven only by the gateway
// adapter, never by a client-reported success. Re-delivery of the same
// confirmation is a successful no-op; the bool return reports whether this
// call was the one that applied it.
func ConfirmPayment(bookingID uuid.UUID, gatewayEventID *string) (*models.Booking, bool, error) {
	var booking models.Booking
	applied := false

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "booking_id = ?", bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "payment"}
			}
			return err
		}
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return err
		}

		if payment.Status == models.PaymentSucceeded {
			// At-least-once delivery; the first confirmation already landed.
			return nil
		}

		now := time.Now()
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingPending).
			Updates(map[string]interface{}{"status": models.BookingPaid, "paid_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// A concurrent delivery may have won the guarded update between
			// our read and this write; that is still the duplicate no-op.
			if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
				return err
			}
			if booking.Status == models.BookingPaid {
				return nil
			}
			return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: "confirm payment for"}
		}

		result = tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
			Updates(map[string]interface{}{"status": models.PaymentSucceeded, "gateway_event_id": gatewayEventID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidStateTransitionError{Entity: "payment", From: payment.Status, Action: "confirm"}
		}

		if _, err := PostPending(tx, booking.TutorID, booking.ID, payment.AmountPence); err != nil {
			return err
		}

		booking.Status = models.BookingPaid
		booking.PaidAt = &now
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &booking, applied, nil
}

// MarkBookingFailed records a failed or abandoned payment. The booking keeps
// its record for audit but stops occupying the slot.
func MarkBookingFailed(bookingID uuid.UUID) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingPending).
			Update("status", models.BookingFailed)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return bookingTransitionError(tx, bookingID, "fail")
		}

		tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", bookingID, models.PaymentPending).
			Update("status", models.PaymentFailed)
		return nil
	})
}

// CancelBooking lets the learner abandon an unpaid reservation.
func CancelBooking(bookingID, learnerID uuid.UUID) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
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

		now := time.Now()
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingPending).
			Updates(map[string]interface{}{"status": models.BookingCancelled, "cancelled_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: "cancel"}
		}

		tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", bookingID, models.PaymentPending).
			Update("status", models.PaymentFailed)
		return nil
	})
}

// RescheduleBooking moves a booking to a new slot of the same duration. Only
// the learner may reschedule, only while pending or paid, and only before the
// original session start. The ledger is never touched.
func RescheduleBooking(bookingID, learnerID uuid.UUID, newStartAt, newEndAt time.Time) (*models.Booking, error) {
	var booking models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "booking"}
			}
			return err
		}
		if booking.LearnerID != learnerID {
			return &AuthorizationError{Msg: "this is not your booking"}
		}
		if booking.Status != models.BookingPending && booking.Status != models.BookingPaid {
			return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: "reschedule"}
		}
		if time.Now().After(booking.StartAt) {
			return &ValidationError{Msg: "cannot reschedule once the original session time has passed"}
		}
		if newStartAt.Before(time.Now()) {
			return &ValidationError{Msg: "new session time cannot be in the past"}
		}
		if newEndAt.Sub(newStartAt) != booking.EndAt.Sub(booking.StartAt) {
			return &ValidationError{Msg: "rescheduled session must keep the same duration"}
		}

		if err := tx.Model(&models.Tutor{}).Where("user_id = ?", booking.TutorID).
			Update("updated_at", time.Now()).Error; err != nil {
			return err
		}

		available, err := IsSlotAvailable(tx, booking.TutorID, newStartAt, newEndAt)
		if err != nil {
			return err
		}
		if !available {
			return &ValidationError{Msg: "slot is outside the tutor's published availability"}
		}

		var clashing int64
		err = tx.Model(&models.Booking{}).
			Where("tutor_id = ? AND id <> ? AND status IN ? AND start_at < ? AND end_at > ?",
				booking.TutorID, bookingID,
				[]string{models.BookingPending, models.BookingPaid, models.BookingCompleted}, newEndAt, newStartAt).
			Count(&clashing).Error
		if err != nil {
			return err
		}
		if clashing > 0 {
			return &ConflictError{Msg: "another booking already occupies this slot"}
		}

		// Guarded on status so a payment confirmation racing this call
		// resolves deterministically: whichever lands first wins.
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, booking.Status).
			Updates(map[string]interface{}{"start_at": newStartAt, "end_at": newEndAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return bookingTransitionError(tx, bookingID, "reschedule")
		}

		booking.StartAt = newStartAt
		booking.EndAt = newEndAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CompleteBooking transitions an elapsed paid session to completed and
// releases the escrowed funds, unless an open dispute holds them back. It is
// time-triggered (the completion sweep), never user-triggered.
func CompleteBooking(bookingID uuid.UUID) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &NotFoundError{Entity: "booking"}
			}
			return err
		}
		if time.Now().Before(booking.EndAt) {
			return &ValidationError{Msg: "session has not ended yet"}
		}

		now := time.Now()
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingPaid).
			Updates(map[string]interface{}{"status": models.BookingCompleted, "completed_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: "complete"}
		}

		var openDisputes int64
		err := tx.Model(&models.Dispute{}).
			Where("booking_id = ? AND status = ?", bookingID, models.DisputeOpen).
			Count(&openDisputes).Error
		if err != nil {
			return err
		}
		if openDisputes > 0 {
			// Release stays deferred until the dispute is resolved.
			return nil
		}

		var entry models.LedgerEntry
		if err := tx.First(&entry, "booking_id = ? AND state = ?", bookingID, models.EntryPendingRelease).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// A resolved dispute already settled the escrowed entry;
				// only the status flip was left to do.
				return nil
			}
			return err
		}
		return Release(tx, entry.ID)
	})
}

func bookingTransitionError(tx *gorm.DB, bookingID uuid.UUID, action string) error {
	var booking models.Booking
	if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
		return &NotFoundError{Entity: "booking"}
	}
	return &InvalidStateTransitionError{Entity: "booking", From: booking.Status, Action: action}
}
