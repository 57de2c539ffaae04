package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/services"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func requestMeta(c *fiber.Ctx) (*string, *string) {
	ip := c.IP()
	userAgent := c.Get("User-Agent")
	return strOrNil(ip), strOrNil(userAgent)
}

// trackingError maps service errors onto the public tracking API statuses.
func trackingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidReferralCode):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or inactive referral code",
		})
	case errors.Is(err, services.ErrExpiredReferralCode):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Referral code has expired",
		})
	case errors.Is(err, services.ErrAgentUnavailable):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Agent not found or inactive",
		})
	case errors.Is(err, services.ErrDuplicateReferral):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Customer already referred by this agent",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}
}

type TrackReferralRequest struct {
	ReferralCode   string   `json:"referral_code" validate:"required,max=50"`
	CustomerName   string   `json:"customer_name" validate:"required,max=255"`
	CustomerEmail  string   `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone  string   `json:"customer_phone" validate:"omitempty,max=20"`
	Notes          string   `json:"notes" validate:"omitempty,max=1000"`
	Source         string   `json:"source" validate:"omitempty,max=100"`
	Amount         *float64 `json:"amount" validate:"omitempty,gte=0"`
	LandingPageURL string   `json:"landing_page_url" validate:"omitempty,max=500"`
}

func TrackReferral(c *fiber.Ctx) error {
	var req TrackReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "Cannot parse JSON",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  err.Error(),
		})
	}

	ip, userAgent := requestMeta(c)
	referral, agent, err := services.TrackReferral(services.TrackReferralInput{
		ReferralCode:   req.ReferralCode,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		LandingPageURL: strOrNil(req.LandingPageURL),
		IPAddress:      ip,
		UserAgent:      userAgent,
	})
	if err != nil {
		return trackingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Referral tracked successfully",
		"data": fiber.Map{
			"referral_id":   referral.ID,
			"agent_name":    agent.Name(),
			"customer_name": referral.ReferredName,
			"status":        referral.Status,
			"tracked_at":    referral.CreatedAt,
		},
	})
}

type TrackSaleRequest struct {
	ReferralCode  string  `json:"referral_code" validate:"required,max=50"`
	CustomerName  string  `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string  `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone string  `json:"customer_phone" validate:"omitempty,max=20"`
	SaleAmount    float64 `json:"sale_amount" validate:"required,gt=0"`
	ProductName   string  `json:"product_name" validate:"required,max=255"`
	SaleDate      string  `json:"sale_date" validate:"required"`
	InvoiceNumber string  `json:"invoice_number" validate:"omitempty,max=100"`
	Notes         string  `json:"notes" validate:"omitempty,max=1000"`
	Source        string  `json:"source" validate:"omitempty,max=100"`
}

func TrackSale(c *fiber.Ctx) error {
	var req TrackSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "Cannot parse JSON",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  err.Error(),
		})
	}

	saleDate, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "sale_date must be a valid date in YYYY-MM-DD format",
		})
	}
	if saleDate.After(time.Now()) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "sale_date must not be in the future",
		})
	}

	ip, userAgent := requestMeta(c)
	sale, commission, agent, err := services.TrackSale(services.TrackSaleInput{
		ReferralCode:  req.ReferralCode,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		SaleAmount:    decimal.NewFromFloat(req.SaleAmount).Round(2),
		ProductName:   req.ProductName,
		SaleDate:      saleDate,
		InvoiceNumber: strOrNil(req.InvoiceNumber),
		IPAddress:     ip,
		UserAgent:     userAgent,
	})
	if err != nil {
		return trackingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Sale tracked successfully",
		"data": fiber.Map{
			"sale_id":               sale.ID,
			"commission_id":         commission.ID,
			"agent_name":            agent.Name(),
			"customer_name":         req.CustomerName,
			"sale_amount":           sale.Amount,
			"commission_amount":     commission.Amount,
			"commission_percentage": commission.CommissionRate,
			"status":                commission.Status,
			"tracked_at":            sale.CreatedAt,
		},
	})
}

type TrackVisitRequest struct {
	ReferralCode     string `json:"referral_code" validate:"required,max=50"`
	VisitURL         string `json:"visit_url" validate:"required,url,max=500"`
	VisitTime        string `json:"visit_time" validate:"required"`
	ReferralPage     string `json:"referral_page" validate:"omitempty,max=255"`
	SessionID        string `json:"session_id" validate:"omitempty,max=100"`
	PageTitle        string `json:"page_title" validate:"omitempty,max=255"`
	UserAgent        string `json:"user_agent" validate:"omitempty,max=500"`
	ScreenResolution string `json:"screen_resolution" validate:"omitempty,max=50"`
	Language         string `json:"language" validate:"omitempty,max=10"`
	Timezone         string `json:"timezone" validate:"omitempty,max=50"`
}

func parseVisitTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func TrackVisit(c *fiber.Ctx) error {
	var req TrackVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "Cannot parse JSON",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  err.Error(),
		})
	}

	visitTime, err := parseVisitTime(req.VisitTime)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  "visit_time must be a valid timestamp",
		})
	}

	ip, fallbackUA := requestMeta(c)
	userAgent := strOrNil(req.UserAgent)
	if userAgent == nil {
		userAgent = fallbackUA
	}

	visit, agent, err := services.TrackVisit(services.TrackVisitInput{
		ReferralCode:     req.ReferralCode,
		VisitURL:         req.VisitURL,
		VisitTime:        visitTime,
		ReferralPage:     strOrNil(req.ReferralPage),
		SessionID:        strOrNil(req.SessionID),
		PageTitle:        strOrNil(req.PageTitle),
		IPAddress:        ip,
		UserAgent:        userAgent,
		ScreenResolution: strOrNil(req.ScreenResolution),
		Language:         strOrNil(req.Language),
		Timezone:         strOrNil(req.Timezone),
	})
	if err != nil {
		return trackingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Visit tracked successfully",
		"data": fiber.Map{
			"visit_id":      visit.ID,
			"agent_name":    agent.Name(),
			"referral_code": visit.ReferralCode,
			"visit_url":     visit.VisitURL,
			"visit_time":    visit.VisitTime,
			"tracked_at":    visit.CreatedAt,
		},
	})
}

func GetReferralCodeInfo(c *fiber.Ctx) error {
	code := c.Params("code")

	referralCode, agent, err := services.ReferralCodeInfo(code)
	if err != nil {
		return trackingError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"referral_code": referralCode.Code,
			"agent_name":    agent.Name(),
			"agent_type":    agent.ProfileType,
			"is_active":     referralCode.IsActive,
			"created_at":    referralCode.CreatedAt,
		},
	})
}

func GetTrackingVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"version":     "1.0.0",
			"name":        "Penurwill Agent Tracking API",
			"description": "API for tracking agent referrals, visits, and sales",
			"endpoints": fiber.Map{
				"track_referral":    "POST /api/agents/track/referral",
				"track_visit":       "POST /api/agents/track/visit",
				"track_sale":        "POST /api/agents/track/sale",
				"get_referral_info": "GET /api/agents/track/code/{code}",
				"get_version":       "GET /api/agents/track/version",
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
