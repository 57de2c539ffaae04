package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PartnerStatusActive    = "active"
	PartnerStatusInactive  = "inactive"
	PartnerStatusSuspended = "suspended"
)

// Partner is a company that manages agents. Partners can be nested one
// level through ParentID.
type Partner struct {
	ID                        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ParentID                  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	CompanyName               string     `gorm:"size:255;not null" json:"company_name"`
	CompanyRegistrationNumber string     `gorm:"size:100;not null" json:"company_registration_number"`
	CompanyAddress            string     `gorm:"type:text;not null" json:"company_address"`
	CompanyPhone              string     `gorm:"size:20;not null" json:"company_phone"`
	CompanyEmail              string     `gorm:"size:255;not null;unique" json:"company_email"`
	Status                    string     `gorm:"size:20;not null;default:'active'" json:"status"`
	Code                      string     `gorm:"size:50;not null;unique" json:"code"`
	CompanyProfileFile        *string    `gorm:"size:255" json:"company_profile_file"`

	Parent *Partner `gorm:"foreignkey:ParentID" json:"parent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
