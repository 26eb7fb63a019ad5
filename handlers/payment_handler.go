package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/notifications"
	"github.com/jmwangi/tutorlink/payments"
	"github.com/jmwangi/tutorlink/services"
	"github.com/jmwangi/tutorlink/websocket"
)

// HandlePaymentWebhook is the authoritative payment path. Delivery is
// at-least-once, so a duplicate is acknowledged with 200 and applied as a
// no-op. A client-side "checkout closed" signal never reaches this code.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()
	if !payments.VerifyWebhookSignature(body, c.Get("X-Payflow-Signature")) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	var payload payments.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	log.Printf("Received webhook event %s for reference %s, result code %d",
		payload.EventID, payload.Reference, payload.ResultCode)

	var payment models.Payment
	if err := database.DB.Where("id = ?", payload.Reference).First(&payment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	if payload.ResultCode != payments.ResultCodeSuccess {
		if err := services.MarkBookingFailed(payment.BookingID); err != nil {
			// Already failed, cancelled, or confirmed by an earlier event.
			log.Printf("Webhook failure event for booking %s not applied: %v", payment.BookingID, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged failed payment"})
	}

	booking, applied, err := services.ConfirmPayment(payment.BookingID, &payload.EventID)
	if err != nil {
		log.Printf("🔥 CRITICAL: Error processing webhook for payment %s: %v", payment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}
	if !applied {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	}

	websocket.PushStatus(booking.LearnerID, booking.ID, "booking", models.BookingPaid)

	go func() {
		var learner, tutor models.User
		if err := database.DB.First(&learner, "id = ?", booking.LearnerID).Error; err == nil {
			notifications.SendEmail(learner.FullName, learner.Email, "Your Booking is Confirmed!",
				"<h1>Booking Confirmed</h1><p>Your payment was successful and your session is confirmed.</p>")
		}
		if err := database.DB.First(&tutor, "id = ?", booking.TutorID).Error; err == nil {
			notifications.SendEmail(tutor.FullName, tutor.Email, "You Have a New Booking!",
				"<h1>New Booking</h1><p>A learner has booked and paid for a session with you.</p>")
		}
	}()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}
