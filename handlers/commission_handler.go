package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/services"
	"github.com/shopspring/decimal"
)

func monthParams(c *fiber.Ctx) (int, time.Month) {
	now := time.Now()
	year, _ := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	monthNum, _ := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if monthNum < 1 || monthNum > 12 {
		monthNum = int(now.Month())
	}
	return year, time.Month(monthNum)
}

// ListCommissions summarises a month's commissions per agent, with payout
// state where one exists for the same period.
func ListCommissions(c *fiber.Ctx) error {
	year, month := monthParams(c)
	start, end := services.PeriodBounds(year, month)

	var commissions []models.Commission
	err := database.DB.Preload("Agent").
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&commissions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	type agentSummary struct {
		AgentID         uuid.UUID       `json:"agent_id"`
		AgentName       string          `json:"agent_name"`
		TotalCommission decimal.Decimal `json:"total_commission"`
		TotalSales      int             `json:"total_sales"`
		Payout          *fiber.Map      `json:"payout"`
	}

	summaries := make(map[uuid.UUID]*agentSummary)
	for _, commission := range commissions {
		summary, ok := summaries[commission.AgentID]
		if !ok {
			name := ""
			if commission.Agent != nil {
				name = commission.Agent.Name()
			}
			summary = &agentSummary{
				AgentID:         commission.AgentID,
				AgentName:       name,
				TotalCommission: decimal.Zero,
			}
			summaries[commission.AgentID] = summary
		}
		summary.TotalCommission = summary.TotalCommission.Add(commission.Amount)
		summary.TotalSales++
	}

	var payouts []models.Payout
	err = database.DB.Where("created_at >= ? AND created_at < ?", start, end).Find(&payouts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	for _, payout := range payouts {
		if summary, ok := summaries[payout.AgentID]; ok {
			summary.Payout = &fiber.Map{
				"id":      payout.ID,
				"status":  payout.Status,
				"paid_at": payout.PaidAt,
				"amount":  payout.Amount,
			}
		}
	}

	result := make([]*agentSummary, 0, len(summaries))
	for _, summary := range summaries {
		result = append(result, summary)
	}

	return c.JSON(fiber.Map{
		"commissions": result,
		"year":        year,
		"month":       int(month),
	})
}

// GetCommissionDetail lists one agent's commissions for a month together
// with the period totals and any payout.
func GetCommissionDetail(c *fiber.Ctx) error {
	agentID := c.Params("agentId")
	if _, err := uuid.Parse(agentID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID format"})
	}

	var agent models.Agent
	if err := database.DB.First(&agent, "id = ?", agentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	year, month := monthParams(c)
	start, end := services.PeriodBounds(year, month)

	var commissions []models.Commission
	err := database.DB.Preload("Sale").
		Where("agent_id = ? AND created_at >= ? AND created_at < ?", agent.ID, start, end).
		Order("created_at DESC").
		Find(&commissions).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	totalCommission := decimal.Zero
	for _, commission := range commissions {
		totalCommission = totalCommission.Add(commission.Amount)
	}

	var payout models.Payout
	var payoutData *fiber.Map
	err = database.DB.Where("agent_id = ? AND created_at >= ? AND created_at < ?", agent.ID, start, end).
		First(&payout).Error
	if err == nil {
		payoutData = &fiber.Map{
			"id":      payout.ID,
			"status":  payout.Status,
			"paid_at": payout.PaidAt,
			"amount":  payout.Amount,
		}
	}

	return c.JSON(fiber.Map{
		"agent": agent,
		"summary": fiber.Map{
			"total_commission": totalCommission,
			"total_sales":      len(commissions),
		},
		"commissions": commissions,
		"payout":      payoutData,
		"year":        year,
		"month":       int(month),
	})
}
