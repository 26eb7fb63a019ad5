package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/handlers"
	"github.com/jmwangi/tutorlink/middleware"
)

func DisputeRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	disputes := api.Group("/disputes", middleware.Protected())
	disputes.Get("/me", handlers.GetMyDisputes)
	disputes.Patch("/:disputeId/evidence", handlers.SubmitEvidence)
}
