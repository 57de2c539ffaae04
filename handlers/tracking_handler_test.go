package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// Every pool connection to :memory: is a separate database; pin the
	// pool to one so the request goroutines see the seeded data.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Agent{},
		&models.ReferralCode{},
		&models.AgentCommissionRate{},
		&models.SystemSetting{},
		&models.Referral{},
		&models.AgentVisit{},
		&models.Sale{},
		&models.Commission{},
		&models.Payout{},
		&models.PayoutItem{},
		&models.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	database.DB = db

	settings := models.SystemSetting{
		CommissionDefaultRate:        decimal.NewFromFloat(10.00),
		PartnerDefaultCommissionRate: decimal.NewFromFloat(5.00),
		ReferralCodePrefix:           "REF",
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	app := fiber.New()
	track := app.Group("/api/agents/track")
	track.Post("/referral", TrackReferral)
	track.Post("/sale", TrackSale)
	track.Post("/visit", TrackVisit)
	track.Get("/code/:code", GetReferralCodeInfo)
	track.Get("/version", GetTrackingVersion)
	app.Get("/api/pixel/track", TrackPixel)

	return app, db
}

func seedTrackedAgent(t *testing.T, db *gorm.DB, code string) *models.Agent {
	t.Helper()

	name := "Jane Doe"
	email := "jane@example.com"
	agent := models.Agent{
		ProfileType:     "individual",
		IndividualName:  &name,
		IndividualEmail: &email,
		Status:          models.AgentStatusActive,
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	referralCode := models.ReferralCode{
		AgentID:  agent.ID,
		Code:     code,
		IsActive: true,
	}
	if err := db.Create(&referralCode).Error; err != nil {
		t.Fatalf("seed referral code: %v", err)
	}
	return &agent
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestTrackSaleEndpointCreatesCommission(t *testing.T) {
	app, db := setupTestApp(t)
	seedTrackedAgent(t, db, "REFTEST1234")

	resp := postJSON(t, app, "/api/agents/track/sale", map[string]interface{}{
		"referral_code":  "REFTEST1234",
		"customer_name":  "Buyer One",
		"customer_email": "buyer@example.com",
		"sale_amount":    250.00,
		"product_name":   "Pro Plan",
		"sale_date":      time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var commissions []models.Commission
	db.Find(&commissions)
	if len(commissions) != 1 {
		t.Fatalf("commissions = %d, want 1", len(commissions))
	}
	if !commissions[0].Amount.Equal(decimal.NewFromFloat(25.00)) {
		t.Errorf("commission amount = %s, want 25.00", commissions[0].Amount)
	}
}

func TestTrackSaleEndpointUnknownCode(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/api/agents/track/sale", map[string]interface{}{
		"referral_code":  "NOSUCHCODE",
		"customer_name":  "Buyer One",
		"customer_email": "buyer@example.com",
		"sale_amount":    100.00,
		"product_name":   "Pro Plan",
		"sale_date":      time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
	})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTrackSaleEndpointValidation(t *testing.T) {
	app, db := setupTestApp(t)
	seedTrackedAgent(t, db, "REFTEST1234")

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing amount", map[string]interface{}{
			"referral_code":  "REFTEST1234",
			"customer_name":  "Buyer",
			"customer_email": "buyer@example.com",
			"product_name":   "Plan",
			"sale_date":      "2026-01-15",
		}},
		{"bad email", map[string]interface{}{
			"referral_code":  "REFTEST1234",
			"customer_name":  "Buyer",
			"customer_email": "not-an-email",
			"sale_amount":    100.00,
			"product_name":   "Plan",
			"sale_date":      "2026-01-15",
		}},
		{"future sale date", map[string]interface{}{
			"referral_code":  "REFTEST1234",
			"customer_name":  "Buyer",
			"customer_email": "buyer@example.com",
			"sale_amount":    100.00,
			"product_name":   "Plan",
			"sale_date":      time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/agents/track/sale", tc.body)
			if resp.StatusCode != fiber.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}
		})
	}
}

func TestTrackReferralEndpointDuplicate(t *testing.T) {
	app, db := setupTestApp(t)
	seedTrackedAgent(t, db, "REFTEST1234")

	body := map[string]interface{}{
		"referral_code":  "REFTEST1234",
		"customer_name":  "New Customer",
		"customer_email": "customer@example.com",
	}

	if resp := postJSON(t, app, "/api/agents/track/referral", body); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first status = %d, want 201", resp.StatusCode)
	}
	if resp := postJSON(t, app, "/api/agents/track/referral", body); resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("second status = %d, want 409", resp.StatusCode)
	}
}

func TestGetReferralCodeInfoEndpoint(t *testing.T) {
	app, db := setupTestApp(t)
	agent := seedTrackedAgent(t, db, "REFTEST1234")

	req, _ := http.NewRequest(http.MethodGet, "/api/agents/track/code/REFTEST1234", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ReferralCode string `json:"referral_code"`
			AgentName    string `json:"agent_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.ReferralCode != "REFTEST1234" {
		t.Errorf("referral_code = %q, want REFTEST1234", body.Data.ReferralCode)
	}
	if body.Data.AgentName != agent.Name() {
		t.Errorf("agent_name = %q, want %q", body.Data.AgentName, agent.Name())
	}
}

func TestPixelAlwaysReturnsImage(t *testing.T) {
	app, db := setupTestApp(t)
	seedTrackedAgent(t, db, "REFTEST1234")

	paths := []string{
		"/api/pixel/track?rc=REFTEST1234&url=https://example.com/landing",
		"/api/pixel/track?rc=NOSUCHCODE",
		"/api/pixel/track",
	}
	for _, path := range paths {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test(%s): %v", path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
		if got := resp.Header.Get("Content-Type"); got != "image/gif" {
			t.Errorf("%s content-type = %q, want image/gif", path, got)
		}
	}
}

func TestPixelRecordsVisit(t *testing.T) {
	app, db := setupTestApp(t)
	agent := seedTrackedAgent(t, db, "REFTEST1234")

	path := fmt.Sprintf("/api/pixel/track?rc=%s&url=%s", "REFTEST1234", "https://example.com/landing")
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var visits []models.AgentVisit
	db.Find(&visits)
	if len(visits) != 1 {
		t.Fatalf("visits = %d, want 1", len(visits))
	}
	if visits[0].AgentID != agent.ID {
		t.Errorf("visit agent = %s, want %s", visits[0].AgentID, agent.ID)
	}
}
