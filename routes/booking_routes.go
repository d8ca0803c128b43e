package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Get("/analytics", handlers.GetBookingAnalytics)
	booking.Post("", middleware.StudentRequired(), handlers.CreateBooking)
	booking.Get("/:bookingId", handlers.GetBooking)
	booking.Put("/:bookingId/status", handlers.UpdateBookingStatus)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Post("/:bookingId/reschedule", handlers.RescheduleBooking)
	booking.Put("/:bookingId/meeting-details", handlers.UpdateMeetingDetails)
	booking.Post("/:bookingId/dispute", handlers.OpenDispute)

	tutorBooking := api.Group("/tutor/bookings", middleware.Protected(), middleware.TutorRequired())
	tutorBooking.Post("/:bookingId/feedback", handlers.SubmitTutorFeedback)
}
