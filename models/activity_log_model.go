package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is the append-only audit sink. Rows are written inside the same
// transaction as the business write they describe.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ActorType   string     `gorm:"size:20;not null;default:'user'" json:"actor_type"`
	Action      string     `gorm:"size:20;not null" json:"action"`
	TargetType  string     `gorm:"size:50;not null" json:"target_type"`
	TargetID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"target_id"`
	Description *string    `gorm:"type:text" json:"description"`
	BeforeData  []byte     `gorm:"type:jsonb" json:"before_data"`
	AfterData   []byte     `gorm:"type:jsonb" json:"after_data"`
	IPAddress   *string    `gorm:"size:45" json:"ip_address"`
	UserAgent   *string    `gorm:"size:500" json:"user_agent"`

	User *User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
