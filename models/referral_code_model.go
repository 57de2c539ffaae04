package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReferralCode struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	AgentID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"agent_id"`
	Code           string           `gorm:"size:50;not null;unique" json:"code"`
	IsActive       bool             `gorm:"not null;default:true" json:"is_active"`
	CommissionRate *decimal.Decimal `gorm:"type:numeric(5,2)" json:"commission_rate"`
	UsedCount      int              `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt      *time.Time       `json:"expires_at"`

	Agent *Agent `gorm:"foreignkey:AgentID" json:"agent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ReferralCode) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsUsable reports whether the code is active and not past its expiry.
func (r *ReferralCode) IsUsable(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// IsExpired reports a set expiry in the past. An expired code may still be
// flagged active until the housekeeping job catches up.
func (r *ReferralCode) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
