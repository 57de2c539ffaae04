package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/handlers"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", handlers.Login)
}
