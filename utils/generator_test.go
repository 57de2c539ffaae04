package utils

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/penurwill/agent_network/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGenerateUniqueReferralCode(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Agent{}, &models.ReferralCode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	code, err := GenerateUniqueReferralCode(db, "REF")
	if err != nil {
		t.Fatalf("GenerateUniqueReferralCode: %v", err)
	}
	if !strings.HasPrefix(code, "REF") {
		t.Errorf("code %q missing prefix", code)
	}
	if len(code) != len("REF")+8 {
		t.Errorf("code %q length = %d, want %d", code, len(code), len("REF")+8)
	}

	seen := map[string]bool{code: true}
	for i := 0; i < 20; i++ {
		next, err := GenerateUniqueReferralCode(db, "REF")
		if err != nil {
			t.Fatalf("GenerateUniqueReferralCode: %v", err)
		}
		if seen[next] {
			t.Fatalf("duplicate code generated: %q", next)
		}
		seen[next] = true
	}
}
