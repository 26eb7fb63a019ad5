package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/database"
	"github.com/jmwangi/tutorlink/models"
	"github.com/jmwangi/tutorlink/services"
)

// GetWallet returns the tutor's balances, recomputed from ledger entries on
// every read, plus the entries themselves.
func GetWallet(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	summary, err := services.Summarize(database.DB, tutorID)
	if err != nil {
		return respondServiceError(c, err)
	}

	withdrawable, err := services.WithdrawableBalance(database.DB, tutorID)
	if err != nil {
		return respondServiceError(c, err)
	}

	var entries []models.LedgerEntry
	database.DB.Where("tutor_id = ?", tutorID).Order("created_at desc").Find(&entries)

	return c.JSON(fiber.Map{
		"summary":            summary,
		"withdrawable_pence": withdrawable,
		"entries":            entries,
	})
}

func GetWalletStatement(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	url, err := services.GenerateStatement(tutorID)
	if err != nil {
		log.Printf("🔥 Failed to generate statement for tutor %s: %v", tutorID, err)
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"statement_url": url})
}
