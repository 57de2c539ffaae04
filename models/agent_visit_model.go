package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentVisit struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AgentID          uuid.UUID `gorm:"type:uuid;not null;index" json:"agent_id"`
	ReferralCode     string    `gorm:"size:50;not null" json:"referral_code"`
	VisitURL         string    `gorm:"size:500;not null" json:"visit_url"`
	VisitTime        time.Time `gorm:"not null" json:"visit_time"`
	ReferralPage     *string   `gorm:"size:255" json:"referral_page"`
	SessionID        *string   `gorm:"size:100" json:"session_id"`
	PageTitle        *string   `gorm:"size:255" json:"page_title"`
	IPAddress        *string   `gorm:"size:45" json:"ip_address"`
	UserAgent        *string   `gorm:"size:500" json:"user_agent"`
	ScreenResolution *string   `gorm:"size:50" json:"screen_resolution"`
	Language         *string   `gorm:"size:10" json:"language"`
	Timezone         *string   `gorm:"size:50" json:"timezone"`

	Agent *Agent `gorm:"foreignkey:AgentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (v *AgentVisit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
