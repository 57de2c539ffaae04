package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/handlers"
)

// TrackingRoutes are public; they are hit by embedded snippets on partner
// sites and carry no authentication.
func TrackingRoutes(app *fiber.App) {
	api := app.Group("/api")

	track := api.Group("/agents/track")
	track.Post("/referral", handlers.TrackReferral)
	track.Post("/sale", handlers.TrackSale)
	track.Post("/visit", handlers.TrackVisit)
	track.Get("/code/:code", handlers.GetReferralCodeInfo)
	track.Get("/version", handlers.GetTrackingVersion)

	pixel := api.Group("/pixel")
	pixel.Get("/track", handlers.TrackPixel)
	pixel.Options("/track", handlers.PixelPreflight)
}
