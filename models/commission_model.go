package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission source types record the provenance of the applied rate.
const (
	CommissionSourceReferralCode  = "referral_code"
	CommissionSourceAgentRate     = "agent_rate"
	CommissionSourceSystemDefault = "system_default"
)

const (
	CommissionStatusPending   = "pending"
	CommissionStatusApproved  = "approved"
	CommissionStatusPaid      = "paid"
	CommissionStatusCancelled = "cancelled"
)

// Commission amount is fixed at creation time and never recomputed; only
// status, paid_at and paid_by change afterwards.
type Commission struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;unique" json:"sale_id"`
	AgentID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"agent_id"`
	CommissionSource string          `gorm:"size:20;not null" json:"commission_source"`
	AppliedRate      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"applied_rate"`
	CommissionRate   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"commission_rate"`
	Amount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status           string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaidAt           *time.Time      `json:"paid_at"`
	PaidBy           *uuid.UUID      `gorm:"type:uuid" json:"paid_by"`

	Sale        *Sale        `gorm:"foreignkey:SaleID" json:"sale,omitempty"`
	Agent       *Agent       `gorm:"foreignkey:AgentID" json:"agent,omitempty"`
	PayoutItems []PayoutItem `gorm:"foreignkey:CommissionID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
