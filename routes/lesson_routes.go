package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func LessonRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	lessons := api.Group("/tutor/lessons", middleware.Protected(), middleware.TutorRequired())
	lessons.Get("/completable", handlers.GetCompletableLessons)
	lessons.Get("/completed", handlers.GetCompletedLessons)
	lessons.Post("/:bookingId/complete", handlers.CompleteLesson)
	lessons.Put("/:bookingId/notes", handlers.UpdateLessonNotes)
}
