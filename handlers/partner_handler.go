package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/penurwill/agent_network/services"
	"github.com/penurwill/agent_network/utils"
	"gorm.io/gorm"
)

type CreatePartnerRequest struct {
	ParentID                  string `json:"parent_id" validate:"omitempty,uuid4"`
	CompanyName               string `json:"company_name" validate:"required,max=255"`
	CompanyRegistrationNumber string `json:"company_registration_number" validate:"required,max=100"`
	CompanyAddress            string `json:"company_address" validate:"required,max=1000"`
	CompanyPhone              string `json:"company_phone" validate:"required,max=20"`
	CompanyEmail              string `json:"company_email" validate:"required,email,max=255"`
}

// CreatePartner registers a partner company and assigns it a unique code.
func CreatePartner(c *fiber.Ctx) error {
	var req CreatePartnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		parsed, err := uuid.Parse(req.ParentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent ID format"})
		}
		var parent models.Partner
		if err := database.DB.First(&parent, "id = ?", parsed).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Parent partner not found"})
		}
		parentID = &parsed
	}

	actor := actorID(c)

	partner := models.Partner{
		ParentID:                  parentID,
		CompanyName:               req.CompanyName,
		CompanyRegistrationNumber: req.CompanyRegistrationNumber,
		CompanyAddress:            req.CompanyAddress,
		CompanyPhone:              req.CompanyPhone,
		CompanyEmail:              req.CompanyEmail,
		Status:                    models.PartnerStatusActive,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		code, err := utils.GenerateUniquePartnerCode(tx, "PTR-")
		if err != nil {
			return err
		}
		partner.Code = code

		if err := tx.Create(&partner).Error; err != nil {
			return err
		}
		return services.LogCreate(tx, actor, "partner", partner.ID, &partner)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create partner"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"partner": partner})
}

func ListPartners(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := strings.TrimSpace(c.Query("search"))
	offset := (page - 1) * limit

	var partners []models.Partner
	var total int64

	query := database.DB.Model(&models.Partner{}).Preload("Parent")
	countQuery := database.DB.Model(&models.Partner{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("company_name ILIKE ? OR company_email ILIKE ? OR code ILIKE ?", searchTerm, searchTerm, searchTerm)
		countQuery = countQuery.Where("company_name ILIKE ? OR company_email ILIKE ? OR code ILIKE ?", searchTerm, searchTerm, searchTerm)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&total)
	query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&partners)

	return c.JSON(fiber.Map{
		"data": partners,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetPartner(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")
	if _, err := uuid.Parse(partnerID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid partner ID format"})
	}

	var partner models.Partner
	if err := database.DB.Preload("Parent").First(&partner, "id = ?", partnerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Partner not found"})
	}

	return c.JSON(partner)
}

type PartnerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended"`
}

func UpdatePartnerStatus(c *fiber.Ctx) error {
	var req PartnerStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var partner models.Partner
	if err := database.DB.First(&partner, "id = ?", c.Params("partnerId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Partner not found"})
	}

	actor := actorID(c)
	before := partner

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		partner.Status = req.Status
		if err := tx.Model(&partner).Update("status", req.Status).Error; err != nil {
			return err
		}
		return services.LogUpdate(tx, actor, "partner", partner.ID, &before, &partner)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update partner status"})
	}

	return c.JSON(fiber.Map{"message": "Partner status updated successfully", "partner": partner})
}
