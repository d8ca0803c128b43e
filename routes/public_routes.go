package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	tutors := api.Group("/tutors")
	tutors.Get("", handlers.SearchTutors)
	tutors.Get("/:tutorId", handlers.GetTutor)
	tutors.Get("/:tutorId/ratings", handlers.GetTutorRatings)
}
