package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	tutor := api.Group("/tutor", middleware.Protected(), middleware.TutorRequired())
	tutor.Put("/profile", handlers.UpdateTutorProfile)
	tutor.Get("/dashboard", handlers.GetTutorDashboard)

	student := api.Group("/student", middleware.Protected(), middleware.StudentRequired())
	student.Get("/dashboard", handlers.GetStudentDashboard)
	student.Get("/wishlist", handlers.GetWishlist)
	student.Post("/wishlist/:tutorId", handlers.AddToWishlist)
	student.Delete("/wishlist/:tutorId", handlers.RemoveFromWishlist)
}
