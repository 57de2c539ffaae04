package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutItem snapshots one commission amount into a payout batch. A
// commission belongs to at most one non-deleted item at a time; re-batching a
// payout deletes and recreates its items.
type PayoutItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PayoutID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"payout_id"`
	CommissionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"commission_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`

	Payout     *Payout     `gorm:"foreignkey:PayoutID" json:"-"`
	Commission *Commission `gorm:"foreignkey:CommissionID" json:"commission,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *PayoutItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
