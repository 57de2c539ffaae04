package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/notifications"
	"github.com/penurwill/agent_network/services"
	"github.com/shopspring/decimal"
)

func ListPayouts(c *fiber.Ctx) error {
	var payouts []models.Payout
	err := database.DB.Preload("Agent").Preload("PayoutItems").
		Order("created_at DESC").
		Find(&payouts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	totalAmount := decimal.Zero
	breakdown := fiber.Map{"pending": 0, "approved": 0, "paid": 0}
	data := make([]fiber.Map, 0, len(payouts))

	for _, payout := range payouts {
		totalAmount = totalAmount.Add(payout.Amount)
		if count, ok := breakdown[payout.Status].(int); ok {
			breakdown[payout.Status] = count + 1
		}

		agentName := "Unknown"
		if payout.Agent != nil {
			agentName = payout.Agent.Name()
		}
		data = append(data, fiber.Map{
			"id":          payout.ID,
			"agent_name":  agentName,
			"amount":      payout.Amount,
			"status":      payout.Status,
			"created_at":  payout.CreatedAt,
			"paid_at":     payout.PaidAt,
			"items_count": len(payout.PayoutItems),
		})
	}

	return c.JSON(fiber.Map{
		"payouts": data,
		"summary": fiber.Map{
			"total_payouts":    len(payouts),
			"total_amount":     totalAmount,
			"status_breakdown": breakdown,
		},
	})
}

func GetPayout(c *fiber.Ctx) error {
	payoutID := c.Params("payoutId")
	if _, err := uuid.Parse(payoutID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	var payout models.Payout
	err := database.DB.Preload("Agent.BankAccount").Preload("PayoutItems.Commission.Sale").
		First(&payout, "id = ?", payoutID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
	}

	return c.JSON(payout)
}

type CreatePayoutRequest struct {
	AgentID       string   `json:"agent_id" validate:"required,uuid"`
	Year          int      `json:"year" validate:"required"`
	Month         int      `json:"month" validate:"required,min=1,max=12"`
	CommissionIDs []string `json:"commission_ids" validate:"required,min=1,dive,uuid"`
	Amount        float64  `json:"amount" validate:"gte=0"`
	IsPaid        bool     `json:"is_paid"`
	PaidAt        string   `json:"paid_at" validate:"required_if=IsPaid true"`
}

func parseCommissionIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreatePayout batches selected commissions for an agent's month. The
// payout's recorded amount is the sum of the items actually created, which
// may be less than the client requested if its view was stale.
func CreatePayout(c *fiber.Ctx) error {
	var req CreatePayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID format"})
	}
	commissionIDs, err := parseCommissionIDs(req.CommissionIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid commission ID format"})
	}

	var paidAt *time.Time
	if req.IsPaid {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paid_at must be RFC3339"})
		}
		paidAt = &parsed
	}

	var agent models.Agent
	if err := database.DB.First(&agent, "id = ?", agentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	payout, err := services.CreatePayout(actorID(c), services.BatchInput{
		AgentID:       agentID,
		Year:          req.Year,
		Month:         time.Month(req.Month),
		CommissionIDs: commissionIDs,
		IsPaid:        req.IsPaid,
		PaidAt:        paidAt,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptySelection) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No commissions selected"})
		}
		log.Printf("🔥 Failed to create payout for agent %s: %v", agentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payout"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payout created successfully",
		"payout":  payout,
	})
}

type UpdatePayoutRequest struct {
	CommissionIDs []string `json:"commission_ids" validate:"required,min=1,dive,uuid"`
	Amount        float64  `json:"amount" validate:"gte=0"`
	IsPaid        bool     `json:"is_paid"`
	PaidAt        string   `json:"paid_at" validate:"required_if=IsPaid true"`
}

// UpdatePayout fully replaces the payout's line items with the new selection.
func UpdatePayout(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("payoutId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	var req UpdatePayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	commissionIDs, err := parseCommissionIDs(req.CommissionIDs)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid commission ID format"})
	}

	var paidAt *time.Time
	if req.IsPaid {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paid_at must be RFC3339"})
		}
		paidAt = &parsed
	}

	payout, err := services.UpdatePayout(actorID(c), payoutID, commissionIDs, req.IsPaid, paidAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
		case errors.Is(err, services.ErrEmptySelection):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No commissions selected"})
		default:
			log.Printf("🔥 Failed to update payout %s: %v", payoutID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payout"})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Payout updated successfully",
		"payout":  payout,
	})
}

// MarkPayoutAsPaid is terminal. The agent notification and statement
// generation are best-effort and never undo the transition.
func MarkPayoutAsPaid(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("payoutId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	payout, err := services.MarkAsPaid(actorID(c), payoutID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
		case errors.Is(err, services.ErrPayoutAlreadyPaid):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Payout has already been paid"})
		default:
			log.Printf("🔥 Failed to mark payout %s as paid: %v", payoutID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark payout as paid"})
		}
	}

	if payout.Agent != nil {
		if email := payout.Agent.ContactEmail(); email != "" {
			go notifications.SendEmail(
				payout.Agent.Name(),
				email,
				"Your Payout Has Been Paid",
				fmt.Sprintf("<h1>Payout Paid</h1><p>Hello %s,</p><p>Your payout of %s has been paid on %s.</p>",
					payout.Agent.Name(), payout.Amount.StringFixed(2), payout.PaidAt.Format("January 2, 2006")),
			)
		} else {
			log.Printf("⚠️ Agent email not found for payout notification, payout %s", payout.ID)
		}
	}
	go services.GeneratePayoutStatement(payout.ID.String())

	return c.JSON(fiber.Map{
		"message": "Payout marked as paid successfully",
		"payout":  payout,
	})
}

// UploadBankTransfer attaches transfer evidence to a payout. The payout row
// is only updated after the file write has been verified.
func UploadBankTransfer(c *fiber.Ctx) error {
	payoutID, err := uuid.Parse(c.Params("payoutId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	fileHeader, err := c.FormFile("bank_transfer_file")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "bank_transfer_file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file uploaded"})
	}
	defer file.Close()

	payout, err := services.AttachBankTransferFile(actorID(c), payoutID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPayoutNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
		case errors.Is(err, services.ErrInvalidFile):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "File must be a pdf, jpg, jpeg or png up to 10MB"})
		default:
			log.Printf("🔥 Failed to store bank transfer file for payout %s: %v", payoutID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file. Please try again."})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Bank transfer file uploaded successfully",
		"payout":  payout,
	})
}

func DownloadBankTransfer(c *fiber.Ctx) error {
	payoutID := c.Params("payoutId")
	if _, err := uuid.Parse(payoutID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID format"})
	}

	var payout models.Payout
	if err := database.DB.First(&payout, "id = ?", payoutID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
	}

	path, err := services.BankTransferFilePath(&payout)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bank transfer file not found"})
	}

	return c.Download(path)
}
