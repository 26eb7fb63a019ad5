package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
)

// Tutor profile CRUD lives elsewhere; this file carries only the slices the
// money core depends on — payout details and published availability.

type PayoutDetailsRequest struct {
	AccountHolder string `json:"account_holder" validate:"required,min=2"`
	BankName      string `json:"bank_name" validate:"required,min=2"`
	AccountNumber string `json:"account_number" validate:"required,min=6,max=34"`
	SortCode      string `json:"sort_code" validate:"required,min=6,max=10"`
}

func UpdatePayoutDetails(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var req PayoutDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var tutor models.Tutor
	if err := database.DB.First(&tutor, "user_id = ?", tutorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor profile not found"})
	}

	tutor.BankAccountHolder = &req.AccountHolder
	tutor.BankName = &req.BankName
	tutor.BankAccountNumber = &req.AccountNumber
	tutor.BankSortCode = &req.SortCode
	if err := database.DB.Save(&tutor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save payout details"})
	}

	return c.JSON(fiber.Map{
		"message":      "Payout details saved.",
		"bank_details": tutor.MaskedBankDetails(),
	})
}

type AvailabilityRuleRequest struct {
	Weekday     int `json:"weekday" validate:"min=0,max=6"`
	StartMinute int `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute   int `json:"end_minute" validate:"required,min=1,max=1440"`
}

func AddAvailabilityRule(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var req AvailabilityRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.EndMinute <= req.StartMinute {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Window end must be after its start"})
	}

	rule := models.AvailabilityRule{
		TutorID:     tutorID,
		Weekday:     req.Weekday,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	}
	if err := database.DB.Create(&rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save availability"})
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

func ListMyAvailabilityRules(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var rules []models.AvailabilityRule
	database.DB.Where("tutor_id = ?", tutorID).Order("weekday asc, start_minute asc").Find(&rules)
	return c.JSON(rules)
}
