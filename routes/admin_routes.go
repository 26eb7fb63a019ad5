package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/handlers"
	"github.com/jmwangi/tutorlink/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)
	admin.Get("/bookings", handlers.AdminGetAllBookings)

	admin.Get("/disputes", handlers.ListOpenDisputes)
	admin.Patch("/disputes/:disputeId/resolve", handlers.ResolveDispute)

	admin.Get("/withdrawal-requests", handlers.ListWithdrawalRequests)
	admin.Patch("/withdrawal-requests/:requestId/approve", handlers.ApproveWithdrawalRequest)
	admin.Patch("/withdrawal-requests/:requestId/reject", handlers.RejectWithdrawalRequest)
	admin.Patch("/withdrawal-requests/:requestId/mark-paid", handlers.MarkWithdrawalPaid)
}
