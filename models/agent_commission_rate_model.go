package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AgentCommissionRate struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	AgentID       uuid.UUID        `gorm:"type:uuid;not null;unique" json:"agent_id"`
	CustomRate    *decimal.Decimal `gorm:"type:numeric(5,2)" json:"custom_rate"`
	EffectiveFrom *time.Time       `json:"effective_from"`
	Notes         *string          `gorm:"type:text" json:"notes"`

	Agent *Agent `gorm:"foreignkey:AgentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *AgentCommissionRate) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
