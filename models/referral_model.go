package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Referral struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ReferrerID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"referrer_id"`
	ReferredEmail    string     `gorm:"size:255;not null" json:"referred_email"`
	ReferredName     string     `gorm:"size:255;not null" json:"referred_name"`
	Status           string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	ConversionDate   *time.Time `json:"conversion_date"`
	LandingPageURL   *string    `gorm:"size:500" json:"landing_page_url"`
	IPAddress        *string    `gorm:"size:45" json:"ip_address"`
	UserAgent        *string    `gorm:"size:500" json:"user_agent"`
	RegisteredUserID *uuid.UUID `gorm:"type:uuid" json:"registered_user_id"`

	Referrer *Agent `gorm:"foreignkey:ReferrerID" json:"referrer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
