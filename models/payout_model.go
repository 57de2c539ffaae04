package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PayoutStatusPending  = "pending"
	PayoutStatusApproved = "approved"
	PayoutStatusPaid     = "paid"
)

// Payout groups approved commissions for a single payment to an agent.
// Amount always equals the sum of its non-deleted items after any batch edit.
// PeriodStart/PeriodEnd is the half-open commission window the batch was
// built over; edits re-evaluate against this window, not the edit date.
type Payout struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AgentID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"agent_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	PeriodStart      time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time       `gorm:"not null" json:"period_end"`
	Status           string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentMethod    *string         `gorm:"size:100" json:"payment_method"`
	Notes            *string         `gorm:"type:text" json:"notes"`
	PaidAt           *time.Time      `json:"paid_at"`
	CreatedBy        *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	BankTransferFile *string         `gorm:"size:255" json:"bank_transfer_file"`
	StatementURL     *string         `gorm:"size:500" json:"statement_url"`

	Agent       *Agent       `gorm:"foreignkey:AgentID" json:"agent,omitempty"`
	PayoutItems []PayoutItem `gorm:"foreignkey:PayoutID" json:"payout_items,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
