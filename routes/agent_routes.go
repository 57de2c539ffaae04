package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/handlers"
	"github.com/penurwill/agent_network/middleware"
)

func AgentRoutes(app *fiber.App) {
	api := app.Group("/api")

	portal := api.Group("/portal", middleware.Protected(), middleware.AgentRequired())

	portal.Get("/profile", handlers.GetMyProfile)
	portal.Get("/commissions", handlers.GetMyCommissions)
	portal.Get("/commissions/eligible", handlers.GetEligibleCommissions)
	portal.Post("/payouts/request", handlers.RequestPayout)
	portal.Get("/payouts", handlers.GetMyPayouts)
}
