package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/services"
)

type WithdrawalRequestBody struct {
	AmountPence int64 `json:"amount_pence" validate:"required,gt=0"`
}

func CreateWithdrawalRequest(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var req WithdrawalRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	request, err := services.CreateWithdrawalRequest(tutorID, req.AmountPence)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Withdrawal request submitted. An admin will review it shortly.",
		"request": request,
	})
}

func GetMyWithdrawalRequests(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var requests []models.WithdrawalRequest
	database.DB.
		Where("tutor_id = ?", tutorID).
		Order("requested_at desc").
		Find(&requests)

	return c.JSON(requests)
}
