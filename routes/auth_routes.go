package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/handlers"
	"github.com/jsquad/tutor_marketplace/middleware"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.RegisterUser)
	auth.Post("/register-tutor", handlers.RegisterTutor)
	auth.Post("/login", handlers.LoginUser)

	me := api.Group("/me", middleware.Protected())
	me.Get("", handlers.GetMe)
	me.Put("/profile", handlers.UpdateProfile)
	me.Put("/password", handlers.ChangePassword)
}
