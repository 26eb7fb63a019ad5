package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/notifications"
	"github.com/jmwangi/tutorlink/payments"
	"github.com/jmwangi/tutorlink/services"
)

type CreateBookingRequest struct {
	TutorID          string `json:"tutor_id" validate:"required,uuid"`
	StartAt          string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt            string `json:"end_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	TuitionRequestID string `json:"tuition_request_id,omitempty" validate:"omitempty,uuid"`
}

func CreateBooking(c *fiber.Ctx) error {
	learnerID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tutorID, _ := uuid.Parse(req.TutorID)
	startAt, _ := time.Parse(time.RFC3339, req.StartAt)
	endAt, _ := time.Parse(time.RFC3339, req.EndAt)

	var tuitionRequestID *uuid.UUID
	if req.TuitionRequestID != "" {
		parsed, _ := uuid.Parse(req.TuitionRequestID)
		tuitionRequestID = &parsed
	}

	booking, err := services.CreateBooking(learnerID, tutorID, startAt, endAt, tuitionRequestID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Slot reserved. Complete checkout to confirm your booking.",
		"booking": booking,
	})
}

// InitiateCheckout opens the external gateway checkout for a pending
// booking. The returned redirect URL is for the browser; confirmation only
// ever arrives through the gateway webhook.
func InitiateCheckout(c *fiber.Ctx) error {
	learnerID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.LearnerID != learnerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.Status != models.BookingPending {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Only unpaid bookings can be checked out"})
	}

	var payment models.Payment
	if err := database.DB.First(&payment, "booking_id = ?", booking.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	session, err := payments.CreateCheckoutSession(payment.ID.String(), payment.AmountPence)
	if err != nil {
		log.Printf("🔥 CRITICAL: CreateCheckoutSession failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	payment.CheckoutID = &session.ID
	if err := database.DB.Save(&payment).Error; err != nil {
		log.Printf("🔥 Failed to store checkout id for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
	}

	return c.JSON(fiber.Map{
		"checkout_id":  session.ID,
		"redirect_url": session.RedirectURL,
	})
}

type RescheduleRequest struct {
	NewStartAt string `json:"new_start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	NewEndAt   string `json:"new_end_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func RescheduleBooking(c *fiber.Ctx) error {
	learnerID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newStartAt, _ := time.Parse(time.RFC3339, req.NewStartAt)
	newEndAt, _ := time.Parse(time.RFC3339, req.NewEndAt)

	booking, err := services.RescheduleBooking(bookingID, learnerID, newStartAt, newEndAt)
	if err != nil {
		return respondServiceError(c, err)
	}

	go func() {
		var tutor models.User
		if dbErr := database.DB.First(&tutor, "id = ?", booking.TutorID).Error; dbErr == nil {
			notifications.SendEmail(tutor.FullName, tutor.Email, "A Session Was Rescheduled",
				"<h1>Session Rescheduled</h1><p>One of your sessions has been moved. Check your dashboard for the new time.</p>")
		}
	}()

	return c.JSON(fiber.Map{"message": "Booking rescheduled.", "booking": booking})
}

func CancelBooking(c *fiber.Ctx) error {
	learnerID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	if err := services.CancelBooking(bookingID, learnerID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Booking cancelled."})
}

func GetMyBookings(c *fiber.Ctx) error {
	learnerID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Tutor").
		Where("learner_id = ?", learnerID).
		Order("start_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetMyTutorBookings(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Learner").
		Where("tutor_id = ?", tutorID).
		Order("start_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}
