package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)

	tutors := admin.Group("/tutors")
	tutors.Get("", handlers.GetAllTutors)
	tutors.Put("/:tutorId/status", handlers.ToggleTutorStatus)
	tutors.Post("/:tutorId/verify", handlers.VerifyTutor)

	bookings := admin.Group("/bookings")
	bookings.Get("", handlers.AdminGetAllBookings)
	bookings.Get("/disputes", handlers.GetDisputedBookings)
	bookings.Post("/:bookingId/cancel", handlers.AdminCancelBooking)
	bookings.Post("/:bookingId/resolve-dispute", handlers.ResolveDispute)

	admin.Get("/stats", handlers.GetSystemStats)
}
