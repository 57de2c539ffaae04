package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func GetSystemSettings(c *fiber.Ctx) error {
	var settings models.SystemSetting
	if err := database.DB.First(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "System settings are not configured"})
	}
	return c.JSON(settings)
}

type UpdateSettingsRequest struct {
	CommissionDefaultRate        float64 `json:"commission_default_rate" validate:"required,gte=0,lte=100"`
	PartnerDefaultCommissionRate float64 `json:"partner_default_commission_rate" validate:"required,gte=0,lte=100"`
	ReferralCodePrefix           string  `json:"referral_code_prefix" validate:"required,max=20,alphanum"`
}

// UpdateSystemSettings changes the global defaults. Existing commissions are
// never recalculated; the new rates only apply to sales recorded afterwards.
func UpdateSystemSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var settings models.SystemSetting
	if err := database.DB.First(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "System settings are not configured"})
	}

	before := settings
	settings.CommissionDefaultRate = decimal.NewFromFloat(req.CommissionDefaultRate).Round(2)
	settings.PartnerDefaultCommissionRate = decimal.NewFromFloat(req.PartnerDefaultCommissionRate).Round(2)
	settings.ReferralCodePrefix = req.ReferralCodePrefix

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&settings).Error; err != nil {
			return err
		}
		return services.LogUpdate(tx, actorID(c), "system_setting", settings.ID, &before, &settings)
	})
	if err != nil {
		log.Printf("🔥 Failed to update system settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update system settings"})
	}

	return c.JSON(fiber.Map{
		"message":  "System settings updated successfully",
		"settings": settings,
	})
}
