package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AgentStatusActive    = "active"
	AgentStatusInactive  = "inactive"
	AgentStatusSuspended = "suspended"
	AgentStatusBanned    = "banned"
)

type Agent struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	ProfileType string `gorm:"size:20;not null;default:'individual'" json:"profile_type"`

	IndividualName     *string `gorm:"size:255" json:"individual_name"`
	IndividualPhone    *string `gorm:"size:20" json:"individual_phone"`
	IndividualEmail    *string `gorm:"size:255" json:"individual_email"`
	IndividualAddress  *string `gorm:"type:text" json:"individual_address"`
	IndividualIDNumber *string `gorm:"size:50" json:"individual_id_number"`
	IndividualIDFile   *string `gorm:"size:255" json:"individual_id_file"`

	CompanyRepresentativeName *string `gorm:"size:255" json:"company_representative_name"`
	CompanyName               *string `gorm:"size:255" json:"company_name"`
	CompanyRegistrationNumber *string `gorm:"size:100" json:"company_registration_number"`
	CompanyAddress            *string `gorm:"type:text" json:"company_address"`
	CompanyPhone              *string `gorm:"size:20" json:"company_phone"`
	CompanyEmailAddress       *string `gorm:"size:255" json:"company_email_address"`
	CompanyRegFile            *string `gorm:"size:255" json:"company_reg_file"`

	Status       string  `gorm:"size:20;not null;default:'active'" json:"status"`
	ProfileImage *string `gorm:"size:255" json:"profile_image"`
	About        *string `gorm:"type:text" json:"about"`

	ReferralCode   *ReferralCode        `gorm:"foreignkey:AgentID" json:"referral_code,omitempty"`
	CommissionRate *AgentCommissionRate `gorm:"foreignkey:AgentID" json:"commission_rate,omitempty"`
	BankAccount    *BankAccount         `gorm:"foreignkey:AgentID" json:"bank_account,omitempty"`
	Sales          []Sale               `gorm:"foreignkey:AgentID" json:"-"`
	Commissions    []Commission         `gorm:"foreignkey:AgentID" json:"-"`
	Payouts        []Payout             `gorm:"foreignkey:AgentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Name returns the agent display name for the active profile type.
func (a *Agent) Name() string {
	if a.ProfileType == "company" {
		if a.CompanyName != nil {
			return *a.CompanyName
		}
		return ""
	}
	if a.IndividualName != nil {
		return *a.IndividualName
	}
	return ""
}

// ContactEmail is the profile email used for payout notifications.
func (a *Agent) ContactEmail() string {
	if a.ProfileType == "company" && a.CompanyEmailAddress != nil {
		return *a.CompanyEmailAddress
	}
	if a.IndividualEmail != nil {
		return *a.IndividualEmail
	}
	return ""
}

func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}
