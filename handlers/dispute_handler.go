package handlers

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/notifications"
	"github.com/jmwangi/tutorlink/services"
)

type OpenDisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10"`
}

func OpenDispute(c *fiber.Ctx) error {
	learnerID := currentUserID(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID"})
	}

	var req OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	dispute, err := services.OpenDispute(learnerID, bookingID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	go func() {
		var booking models.Booking
		if dbErr := database.DB.Preload("Tutor").First(&booking, "id = ?", bookingID).Error; dbErr == nil {
			notifications.SendEmail(booking.Tutor.FullName, booking.Tutor.Email, "A Dispute Was Opened",
				"<h1>Dispute Opened</h1><p>A learner has opened a dispute on one of your sessions. Payment is on hold until it is resolved. You can submit your account of events from your dashboard.</p>")
		}
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Dispute opened. Payment for this session is on hold until an admin resolves it.",
		"dispute": dispute,
	})
}

// SubmitEvidence accepts multipart form data: an "evidence" text field and an
// optional "attachment" document.
func SubmitEvidence(c *fiber.Ctx) error {
	actorID := currentUserID(c)
	disputeID, err := uuid.Parse(c.Params("disputeId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dispute ID"})
	}

	evidence := c.FormValue("evidence")
	if evidence == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Evidence text is required"})
	}

	var attachmentURL *string
	if fileHeader, err := c.FormFile("attachment"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read attachment"})
		}
		defer file.Close()

		fileBytes, err := io.ReadAll(file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read attachment"})
		}

		url, err := services.UploadEvidenceAttachment(fileBytes, disputeID.String())
		if err != nil {
			log.Printf("🔥 Failed to upload evidence attachment: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store attachment"})
		}
		attachmentURL = &url
	}

	if err := services.SubmitEvidence(disputeID, actorID, evidence, attachmentURL); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Evidence submitted."})
}

func GetMyDisputes(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var disputes []models.Dispute
	database.DB.
		Preload("Booking").
		Joins("JOIN bookings ON bookings.id = disputes.booking_id").
		Where("bookings.learner_id = ? OR bookings.tutor_id = ?", userID, userID).
		Order("disputes.created_at desc").
		Find(&disputes)

	return c.JSON(disputes)
}
