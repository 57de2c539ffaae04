package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BankAccount struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AgentID       uuid.UUID `gorm:"type:uuid;not null;unique" json:"agent_id"`
	BankName      string    `gorm:"size:255;not null" json:"bank_name"`
	AccountName   string    `gorm:"size:255;not null" json:"account_name"`
	AccountNumber string    `gorm:"size:50;not null" json:"account_number"`
	SwiftCode     *string   `gorm:"size:20" json:"swift_code"`

	Agent *Agent `gorm:"foreignkey:AgentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
