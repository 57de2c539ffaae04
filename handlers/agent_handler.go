package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/notifications"
	"github.com/penurwill/agent_network/services"
	"github.com/penurwill/agent_network/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateAgentRequest struct {
	ProfileType string `json:"profile_type" validate:"required,oneof=individual company"`

	IndividualName     string `json:"individual_name" validate:"required_if=ProfileType individual,omitempty,max=255"`
	IndividualPhone    string `json:"individual_phone" validate:"omitempty,max=20"`
	IndividualEmail    string `json:"individual_email" validate:"required_if=ProfileType individual,omitempty,email,max=255"`
	IndividualAddress  string `json:"individual_address" validate:"omitempty,max=1000"`
	IndividualIDNumber string `json:"individual_id_number" validate:"omitempty,max=50"`

	CompanyRepresentativeName string `json:"company_representative_name" validate:"omitempty,max=255"`
	CompanyName               string `json:"company_name" validate:"required_if=ProfileType company,omitempty,max=255"`
	CompanyRegistrationNumber string `json:"company_registration_number" validate:"omitempty,max=100"`
	CompanyAddress            string `json:"company_address" validate:"omitempty,max=1000"`
	CompanyPhone              string `json:"company_phone" validate:"omitempty,max=20"`
	CompanyEmailAddress       string `json:"company_email_address" validate:"required_if=ProfileType company,omitempty,email,max=255"`

	About              string   `json:"about" validate:"omitempty,max=2000"`
	CodeCommissionRate *float64 `json:"code_commission_rate" validate:"omitempty,gte=0,lte=100"`
	CodeExpiresAt      string   `json:"code_expires_at" validate:"omitempty"`
}

// CreateAgent onboards an agent together with their primary referral code.
func CreateAgent(c *fiber.Ctx) error {
	var req CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var codeExpiresAt *time.Time
	if req.CodeExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CodeExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code_expires_at must be RFC3339"})
		}
		codeExpiresAt = &parsed
	}

	var settings models.SystemSetting
	if err := database.DB.First(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "System settings not configured"})
	}

	actor := actorID(c)

	agent := models.Agent{
		ProfileType:               req.ProfileType,
		IndividualName:            strOrNil(req.IndividualName),
		IndividualPhone:           strOrNil(req.IndividualPhone),
		IndividualEmail:           strOrNil(req.IndividualEmail),
		IndividualAddress:         strOrNil(req.IndividualAddress),
		IndividualIDNumber:        strOrNil(req.IndividualIDNumber),
		CompanyRepresentativeName: strOrNil(req.CompanyRepresentativeName),
		CompanyName:               strOrNil(req.CompanyName),
		CompanyRegistrationNumber: strOrNil(req.CompanyRegistrationNumber),
		CompanyAddress:            strOrNil(req.CompanyAddress),
		CompanyPhone:              strOrNil(req.CompanyPhone),
		CompanyEmailAddress:       strOrNil(req.CompanyEmailAddress),
		About:                     strOrNil(req.About),
		Status:                    models.AgentStatusActive,
	}

	var referralCode models.ReferralCode

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agent).Error; err != nil {
			return err
		}

		code, err := utils.GenerateUniqueReferralCode(tx, settings.ReferralCodePrefix)
		if err != nil {
			return err
		}

		var codeRate *decimal.Decimal
		if req.CodeCommissionRate != nil {
			rate := decimal.NewFromFloat(*req.CodeCommissionRate).Round(2)
			codeRate = &rate
		}

		referralCode = models.ReferralCode{
			AgentID:        agent.ID,
			Code:           code,
			IsActive:       true,
			CommissionRate: codeRate,
			UsedCount:      0,
			ExpiresAt:      codeExpiresAt,
		}
		if err := tx.Create(&referralCode).Error; err != nil {
			return err
		}

		if err := services.LogCreate(tx, actor, "agent", agent.ID, &agent); err != nil {
			return err
		}
		return services.LogCreate(tx, actor, "referral_code", referralCode.ID, &referralCode)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create agent"})
	}

	if email := agent.ContactEmail(); email != "" {
		go notifications.SendEmail(
			agent.Name(),
			email,
			"Welcome to the Penurwill Agent Network",
			"<h1>Welcome!</h1><p>Your agent profile has been created. Your referral code is <b>"+referralCode.Code+"</b>.</p>",
		)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"agent":         agent,
		"referral_code": referralCode,
	})
}

func ListAgents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := strings.TrimSpace(c.Query("search"))
	offset := (page - 1) * limit

	var agents []models.Agent
	var total int64

	query := database.DB.Model(&models.Agent{}).Preload("ReferralCode").Preload("CommissionRate")
	countQuery := database.DB.Model(&models.Agent{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("individual_name ILIKE ? OR company_name ILIKE ?", searchTerm, searchTerm)
		countQuery = countQuery.Where("individual_name ILIKE ? OR company_name ILIKE ?", searchTerm, searchTerm)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&total)
	query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&agents)

	return c.JSON(fiber.Map{
		"data": agents,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetAgent(c *fiber.Ctx) error {
	agentID := c.Params("agentId")
	if _, err := uuid.Parse(agentID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid agent ID format"})
	}

	var agent models.Agent
	err := database.DB.Preload("ReferralCode").Preload("CommissionRate").Preload("BankAccount").
		First(&agent, "id = ?", agentID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	return c.JSON(agent)
}

type AgentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended banned"`
}

func UpdateAgentStatus(c *fiber.Ctx) error {
	var req AgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var agent models.Agent
	if err := database.DB.First(&agent, "id = ?", c.Params("agentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	actor := actorID(c)
	before := agent

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		agent.Status = req.Status
		if err := tx.Model(&agent).Update("status", req.Status).Error; err != nil {
			return err
		}
		return services.LogUpdate(tx, actor, "agent", agent.ID, &before, &agent)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update agent status"})
	}

	return c.JSON(fiber.Map{"message": "Agent status updated successfully", "agent": agent})
}

type SetCommissionRateRequest struct {
	CustomRate    *float64 `json:"custom_rate" validate:"omitempty,gte=0,lte=100"`
	EffectiveFrom string   `json:"effective_from" validate:"omitempty"`
	Notes         string   `json:"notes" validate:"omitempty,max=1000"`
}

// SetAgentCommissionRate creates or replaces the agent's one-to-one rate
// override. A null custom_rate keeps the row but resolves to the system
// default.
func SetAgentCommissionRate(c *fiber.Ctx) error {
	var req SetCommissionRateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var agent models.Agent
	if err := database.DB.First(&agent, "id = ?", c.Params("agentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	var effectiveFrom *time.Time
	if req.EffectiveFrom != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveFrom)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "effective_from must be YYYY-MM-DD"})
		}
		effectiveFrom = &parsed
	}

	var customRate *decimal.Decimal
	if req.CustomRate != nil {
		rate := decimal.NewFromFloat(*req.CustomRate).Round(2)
		customRate = &rate
	}

	actor := actorID(c)
	var override models.AgentCommissionRate

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("agent_id = ?", agent.ID).First(&override).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			override = models.AgentCommissionRate{
				AgentID:       agent.ID,
				CustomRate:    customRate,
				EffectiveFrom: effectiveFrom,
				Notes:         strOrNil(req.Notes),
			}
			if err := tx.Create(&override).Error; err != nil {
				return err
			}
			return services.LogCreate(tx, actor, "agent_commission_rate", override.ID, &override)
		}

		before := override
		override.CustomRate = customRate
		override.EffectiveFrom = effectiveFrom
		override.Notes = strOrNil(req.Notes)
		if err := tx.Save(&override).Error; err != nil {
			return err
		}
		return services.LogUpdate(tx, actor, "agent_commission_rate", override.ID, &before, &override)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to set commission rate"})
	}

	return c.JSON(fiber.Map{"message": "Commission rate updated successfully", "commission_rate": override})
}

func RemoveAgentCommissionRate(c *fiber.Ctx) error {
	var override models.AgentCommissionRate
	if err := database.DB.Where("agent_id = ?", c.Params("agentId")).First(&override).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Commission rate override not found"})
	}

	actor := actorID(c)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&override).Error; err != nil {
			return err
		}
		return services.LogUpdate(tx, actor, "agent_commission_rate", override.ID, &override, nil)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove commission rate"})
	}

	return c.JSON(fiber.Map{"message": "Commission rate override removed"})
}

type RecordSaleRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	SaleDate      string  `json:"sale_date" validate:"required"`
	BuyerEmail    string  `json:"buyer_email" validate:"required,email,max=255"`
	Description   string  `json:"description" validate:"omitempty,max=1000"`
	InvoiceNumber string  `json:"invoice_number" validate:"omitempty,max=100"`
}

// RecordAgentSale records a sale entered directly against an agent. The rate
// resolves agent override first, then the system default.
func RecordAgentSale(c *fiber.Ctx) error {
	var req RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	saleDate, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "sale_date must be YYYY-MM-DD"})
	}
	if saleDate.After(time.Now()) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "sale_date must not be in the future"})
	}

	var agent models.Agent
	if err := database.DB.First(&agent, "id = ?", c.Params("agentId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found"})
	}

	sale, commission, err := services.RecordSaleForAgent(&agent, actorID(c), services.RecordSaleInput{
		Amount:        decimal.NewFromFloat(req.Amount).Round(2),
		SaleDate:      saleDate,
		BuyerEmail:    req.BuyerEmail,
		Description:   strOrNil(req.Description),
		InvoiceNumber: strOrNil(req.InvoiceNumber),
	})
	if err != nil {
		if errors.Is(err, services.ErrAgentUnavailable) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Agent not found or inactive"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record sale"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sale":       sale,
		"commission": commission,
	})
}
