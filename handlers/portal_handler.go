package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	config "github.com/penurwill/agent_network/configs"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/notifications"
	"github.com/penurwill/agent_network/services"
	"github.com/shopspring/decimal"
)

func currentAgent(c *fiber.Ctx) (*models.Agent, error) {
	agentID := actorAgentID(c)
	if agentID == nil {
		return nil, errors.New("no agent linked to this account")
	}
	var agent models.Agent
	if err := database.DB.Preload("BankAccount").First(&agent, "id = ?", *agentID).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func GetMyProfile(c *fiber.Ctx) error {
	agent, err := currentAgent(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent profile not found"})
	}

	var codes []models.ReferralCode
	database.DB.Where("agent_id = ?", agent.ID).Order("created_at DESC").Find(&codes)

	return c.JSON(fiber.Map{
		"agent":          agent,
		"referral_codes": codes,
	})
}

func GetMyCommissions(c *fiber.Ctx) error {
	agent, err := currentAgent(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent profile not found"})
	}

	query := database.DB.Preload("Sale").Where("agent_id = ?", agent.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var commissions []models.Commission
	if err := query.Order("created_at DESC").Find(&commissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	totalEarned := decimal.Zero
	totalPending := decimal.Zero
	for _, commission := range commissions {
		switch commission.Status {
		case models.CommissionStatusPaid:
			totalEarned = totalEarned.Add(commission.Amount)
		case models.CommissionStatusPending, models.CommissionStatusApproved:
			totalPending = totalPending.Add(commission.Amount)
		}
	}

	return c.JSON(fiber.Map{
		"commissions":   commissions,
		"total_earned":  totalEarned,
		"total_pending": totalPending,
	})
}

// GetEligibleCommissions previews which commissions the agent could include
// in a payout request right now. Optional start_date and end_date query
// params (YYYY-MM-DD) narrow the window by sale date.
func GetEligibleCommissions(c *fiber.Ctx) error {
	agent, err := currentAgent(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent profile not found"})
	}

	var startDate, endDate *time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be YYYY-MM-DD"})
		}
		startDate = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be YYYY-MM-DD"})
		}
		endDate = &parsed
	}

	commissions, err := services.EligibleCommissions(agent.ID, startDate, endDate)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	total := decimal.Zero
	for _, commission := range commissions {
		total = total.Add(commission.Amount)
	}

	return c.JSON(fiber.Map{
		"commissions":  commissions,
		"total_amount": total,
	})
}

type RequestPayoutRequest struct {
	CommissionIDs []string `json:"commission_ids" validate:"required,min=1,dive,uuid"`
}

// RequestPayout is strict: every selected commission must still be eligible
// at commit time or the whole request is rejected.
func RequestPayout(c *fiber.Ctx) error {
	agent, err := currentAgent(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent profile not found"})
	}

	var req RequestPayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	commissionIDs := make([]uuid.UUID, 0, len(req.CommissionIDs))
	for _, raw := range req.CommissionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid commission ID format"})
		}
		commissionIDs = append(commissionIDs, id)
	}

	payout, err := services.RequestPayout(actorID(c), agent, commissionIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStaleSelection):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Some selected commissions are no longer eligible. Please refresh and try again.",
			})
		case errors.Is(err, services.ErrEmptySelection):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No commissions selected"})
		default:
			log.Printf("🔥 Failed to create payout request for agent %s: %v", agent.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit payout request"})
		}
	}

	if notifyEmail := config.Config("PARTNER_NOTIFY_EMAIL"); notifyEmail != "" {
		go notifications.SendEmail(
			"Payouts Team",
			notifyEmail,
			"New Payout Request",
			"<h1>New Payout Request</h1><p>Agent "+agent.Name()+" requested a payout of "+payout.Amount.StringFixed(2)+".</p>",
		)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payout request submitted successfully",
		"payout":  payout,
	})
}

func GetMyPayouts(c *fiber.Ctx) error {
	agent, err := currentAgent(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent profile not found"})
	}

	var payouts []models.Payout
	err = database.DB.Preload("PayoutItems.Commission").
		Where("agent_id = ?", agent.ID).
		Order("created_at DESC").
		Find(&payouts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{"payouts": payouts})
}
