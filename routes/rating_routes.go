package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func RatingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	ratings := api.Group("/ratings", middleware.Protected(), middleware.StudentRequired())
	ratings.Post("", handlers.SubmitRating)
	ratings.Get("/me", handlers.GetMyRatings)
}
