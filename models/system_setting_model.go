package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SystemSetting is a single-row table; exactly one row must exist. A missing
// row is a fatal misconfiguration, not a user-recoverable error.
type SystemSetting struct {
	ID                           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CommissionDefaultRate        decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"commission_default_rate"`
	PartnerDefaultCommissionRate decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"partner_default_commission_rate"`
	ReferralCodePrefix           string          `gorm:"size:20;not null;default:'REF'" json:"referral_code_prefix"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SystemSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
