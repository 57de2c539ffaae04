package database

import (
	"fmt"
	"log"

	config "github.com/penurwill/agent_network/configs"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.Partner{},
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
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedSystemSettings guarantees the single settings row the rate resolver
// depends on.
func SeedSystemSettings() {
	var count int64
	if err := DB.Model(&models.SystemSetting{}).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for system settings: %v", err)
		return
	}

	if count > 0 {
		return
	}

	settings := models.SystemSetting{
		CommissionDefaultRate:        decimal.NewFromFloat(10.00),
		PartnerDefaultCommissionRate: decimal.NewFromFloat(5.00),
		ReferralCodePrefix:           "REF",
	}

	if err := DB.Create(&settings).Error; err != nil {
		log.Fatalf("🔥 Failed to seed system settings: %v", err)
		return
	}

	log.Println("✅ System settings seeded successfully")
}
