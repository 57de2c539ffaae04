package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is created exactly once per tracked sale event. Amount and
// CommissionAmount are fixed at creation and never recomputed.
type Sale struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AgentID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"agent_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"commission_amount"`
	SaleDate         time.Time       `gorm:"type:date;not null" json:"sale_date"`
	BuyerEmail       string          `gorm:"size:255;not null" json:"buyer_email"`
	Description      *string         `gorm:"type:text" json:"description"`
	InvoiceNumber    *string         `gorm:"size:100" json:"invoice_number"`
	IPAddress        *string         `gorm:"size:45" json:"ip_address"`
	UserAgent        *string         `gorm:"size:500" json:"user_agent"`
	IsRecurring      bool            `gorm:"not null;default:false" json:"is_recurring"`

	Agent      *Agent      `gorm:"foreignkey:AgentID" json:"agent,omitempty"`
	Commission *Commission `gorm:"foreignkey:SaleID" json:"commission,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
