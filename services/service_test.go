package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Every pool connection to :memory: is a separate database; pin the
	// pool to one so every session and transaction sees the same data.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.ReferralCode{},
		&models.AgentCommissionRate{},
		&models.BankAccount{},
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
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
	return db
}

func seedSettings(t *testing.T, db *gorm.DB, defaultRate float64) *models.SystemSetting {
	t.Helper()

	settings := models.SystemSetting{
		CommissionDefaultRate:        decimal.NewFromFloat(defaultRate),
		PartnerDefaultCommissionRate: decimal.NewFromFloat(5.00),
		ReferralCodePrefix:           "REF",
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to seed system settings: %v", err)
	}
	return &settings
}

func seedAgent(t *testing.T, db *gorm.DB, status string) *models.Agent {
	t.Helper()

	name := "Jane Doe"
	email := "jane@example.com"
	agent := models.Agent{
		ProfileType:     "individual",
		IndividualName:  &name,
		IndividualEmail: &email,
		Status:          status,
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}
	return &agent
}

func seedCode(t *testing.T, db *gorm.DB, agentID uuid.UUID, code string, rate *decimal.Decimal, expiresAt *time.Time) *models.ReferralCode {
	t.Helper()

	referralCode := models.ReferralCode{
		AgentID:        agentID,
		Code:           code,
		IsActive:       true,
		CommissionRate: rate,
		ExpiresAt:      expiresAt,
	}
	if err := db.Create(&referralCode).Error; err != nil {
		t.Fatalf("failed to seed referral code: %v", err)
	}
	return &referralCode
}

func seedCommission(t *testing.T, db *gorm.DB, agentID uuid.UUID, amount float64, status string) *models.Commission {
	t.Helper()
	return seedCommissionAt(t, db, agentID, amount, status, time.Now().AddDate(0, 0, -1))
}

func seedCommissionAt(t *testing.T, db *gorm.DB, agentID uuid.UUID, amount float64, status string, createdAt time.Time) *models.Commission {
	t.Helper()

	sale := models.Sale{
		AgentID:          agentID,
		Amount:           decimal.NewFromFloat(amount * 10),
		CommissionAmount: decimal.NewFromFloat(amount),
		SaleDate:         createdAt,
		BuyerEmail:       "buyer@example.com",
		CreatedAt:        createdAt,
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("failed to seed sale: %v", err)
	}

	commission := models.Commission{
		SaleID:           sale.ID,
		AgentID:          agentID,
		CommissionSource: models.CommissionSourceSystemDefault,
		AppliedRate:      decimal.NewFromFloat(10),
		CommissionRate:   decimal.NewFromFloat(10),
		Amount:           decimal.NewFromFloat(amount),
		Status:           status,
		CreatedAt:        createdAt,
	}
	if err := db.Create(&commission).Error; err != nil {
		t.Fatalf("failed to seed commission: %v", err)
	}
	return &commission
}

func ratePtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
