package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/handlers"
	"github.com/penurwill/agent_network/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	agents := admin.Group("/agents")
	agents.Post("", handlers.CreateAgent)
	agents.Get("", handlers.ListAgents)
	agents.Get("/:agentId", handlers.GetAgent)
	agents.Put("/:agentId/status", handlers.UpdateAgentStatus)
	agents.Put("/:agentId/commission-rate", handlers.SetAgentCommissionRate)
	agents.Delete("/:agentId/commission-rate", handlers.RemoveAgentCommissionRate)
	agents.Post("/:agentId/sales", handlers.RecordAgentSale)

	commissions := admin.Group("/commissions")
	commissions.Get("", handlers.ListCommissions)
	commissions.Get("/:agentId", handlers.GetCommissionDetail)

	payouts := admin.Group("/payouts")
	payouts.Get("", handlers.ListPayouts)
	payouts.Post("", handlers.CreatePayout)
	payouts.Get("/:payoutId", handlers.GetPayout)
	payouts.Put("/:payoutId", handlers.UpdatePayout)
	payouts.Post("/:payoutId/mark-paid", handlers.MarkPayoutAsPaid)
	payouts.Post("/:payoutId/bank-transfer", handlers.UploadBankTransfer)
	payouts.Get("/:payoutId/bank-transfer", handlers.DownloadBankTransfer)

	partners := admin.Group("/partners")
	partners.Post("", handlers.CreatePartner)
	partners.Get("", handlers.ListPartners)
	partners.Get("/:partnerId", handlers.GetPartner)
	partners.Put("/:partnerId/status", handlers.UpdatePartnerStatus)

	settings := admin.Group("/settings")
	settings.Get("", handlers.GetSystemSettings)
	settings.Put("", handlers.UpdateSystemSettings)

	admin.Get("/activity-logs", handlers.ListActivityLogs)
	admin.Get("/uploads/signature", handlers.GenerateUploadSignature)
}
