package services

import (
	"fmt"

	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResolvedRate is the discriminated result of rate resolution: the percentage
// to apply and which precedence rule produced it.
type ResolvedRate struct {
	Rate   decimal.Decimal
	Source string
}

// ResolveCommissionRate decides the commission percentage for a sale.
//
// Precedence: the referral code's own rate when the sale is attributed
// through a code that carries one, then the agent's custom rate override,
// then the system default. The caller must guarantee exactly one
// SystemSetting row exists; a missing row is a fatal misconfiguration.
func ResolveCommissionRate(tx *gorm.DB, agent *models.Agent, code *models.ReferralCode) (ResolvedRate, error) {
	if code != nil && code.CommissionRate != nil {
		return ResolvedRate{Rate: *code.CommissionRate, Source: models.CommissionSourceReferralCode}, nil
	}
	return ResolveAgentRate(tx, agent)
}

// ResolveAgentRate resolves the rate for sales attributed to an agent
// directly, without a referral code in play.
func ResolveAgentRate(tx *gorm.DB, agent *models.Agent) (ResolvedRate, error) {
	var override models.AgentCommissionRate
	err := tx.Where("agent_id = ?", agent.ID).First(&override).Error
	if err == nil && override.CustomRate != nil {
		return ResolvedRate{Rate: *override.CustomRate, Source: models.CommissionSourceAgentRate}, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return ResolvedRate{}, err
	}

	var settings models.SystemSetting
	if err := tx.First(&settings).Error; err != nil {
		return ResolvedRate{}, fmt.Errorf("system settings row missing: %w", err)
	}
	return ResolvedRate{Rate: settings.CommissionDefaultRate, Source: models.CommissionSourceSystemDefault}, nil
}

// CommissionAmount computes round(amount * rate / 100, 2).
func CommissionAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
}
