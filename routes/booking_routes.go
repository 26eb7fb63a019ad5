package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/handlers"
	"github.com/jmwangi/tutorlink/middleware"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Post("/:bookingId/checkout", handlers.InitiateCheckout)
	booking.Patch("/:bookingId/reschedule", handlers.RescheduleBooking)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Post("/:bookingId/dispute", handlers.OpenDispute)

	tutorBooking := api.Group("/tutor/bookings", middleware.Protected(), middleware.TutorRequired())
	tutorBooking.Get("/me", handlers.GetMyTutorBookings)
}
