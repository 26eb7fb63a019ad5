package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/handlers"
	"github.com/jmwangi/tutorlink/middleware"
)

func WalletRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	wallet := api.Group("/wallet", middleware.Protected(), middleware.TutorRequired())
	wallet.Get("", handlers.GetWallet)
	wallet.Get("/statement", handlers.GetWalletStatement)

	withdrawals := api.Group("/withdrawal-requests", middleware.Protected(), middleware.TutorRequired())
	withdrawals.Get("/me", handlers.GetMyWithdrawalRequests)
	withdrawals.Post("", handlers.CreateWithdrawalRequest)

	tutor := api.Group("/tutor", middleware.Protected(), middleware.TutorRequired())
	tutor.Put("/payout-details", handlers.UpdatePayoutDetails)
	tutor.Get("/availability", handlers.ListMyAvailabilityRules)
	tutor.Post("/availability", handlers.AddAvailabilityRule)
}
