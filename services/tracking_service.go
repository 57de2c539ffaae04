package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TrackReferralInput struct {
	ReferralCode   string
	CustomerName   string
	CustomerEmail  string
	LandingPageURL *string
	IPAddress      *string
	UserAgent      *string
}

type TrackVisitInput struct {
	ReferralCode     string
	VisitURL         string
	VisitTime        time.Time
	ReferralPage     *string
	SessionID        *string
	PageTitle        *string
	IPAddress        *string
	UserAgent        *string
	ScreenResolution *string
	Language         *string
	Timezone         *string
}

type TrackSaleInput struct {
	ReferralCode  string
	CustomerName  string
	CustomerEmail string
	SaleAmount    decimal.Decimal
	ProductName   string
	SaleDate      time.Time
	InvoiceNumber *string
	IPAddress     *string
	UserAgent     *string
}

// resolveUsableCode loads a referral code and its agent, enforcing the
// active/unexpired and agent-attributable rules shared by every tracking path.
func resolveUsableCode(db *gorm.DB, code string) (*models.ReferralCode, *models.Agent, error) {
	var referralCode models.ReferralCode
	if err := db.Where("code = ?", code).First(&referralCode).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrInvalidReferralCode
		}
		return nil, nil, err
	}

	if !referralCode.IsActive {
		return nil, nil, ErrInvalidReferralCode
	}
	if referralCode.IsExpired(time.Now()) {
		return nil, nil, ErrExpiredReferralCode
	}

	var agent models.Agent
	if err := db.Where("id = ?", referralCode.AgentID).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrAgentUnavailable
		}
		return nil, nil, err
	}
	if !agent.IsActive() {
		return nil, nil, ErrAgentUnavailable
	}

	return &referralCode, &agent, nil
}

// TrackReferral records a referred customer for the code's agent. A customer
// email may be referred at most once per agent.
func TrackReferral(in TrackReferralInput) (*models.Referral, *models.Agent, error) {
	_, agent, err := resolveUsableCode(database.DB, in.ReferralCode)
	if err != nil {
		return nil, nil, err
	}

	var existing int64
	err = database.DB.Model(&models.Referral{}).
		Where("referrer_id = ? AND referred_email = ?", agent.ID, in.CustomerEmail).
		Count(&existing).Error
	if err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return nil, nil, ErrDuplicateReferral
	}

	referral := models.Referral{
		ReferrerID:     agent.ID,
		ReferredEmail:  in.CustomerEmail,
		ReferredName:   in.CustomerName,
		Status:         "pending",
		LandingPageURL: in.LandingPageURL,
		IPAddress:      in.IPAddress,
		UserAgent:      in.UserAgent,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&referral).Error; err != nil {
			return err
		}
		return LogCreate(tx, nil, "referral", referral.ID, &referral)
	})
	if err != nil {
		return nil, nil, err
	}

	return &referral, agent, nil
}

// TrackVisit records a landing-page visit attributed through a referral code.
func TrackVisit(in TrackVisitInput) (*models.AgentVisit, *models.Agent, error) {
	_, agent, err := resolveUsableCode(database.DB, in.ReferralCode)
	if err != nil {
		return nil, nil, err
	}

	visit := models.AgentVisit{
		AgentID:          agent.ID,
		ReferralCode:     in.ReferralCode,
		VisitURL:         in.VisitURL,
		VisitTime:        in.VisitTime,
		ReferralPage:     in.ReferralPage,
		SessionID:        in.SessionID,
		PageTitle:        in.PageTitle,
		IPAddress:        in.IPAddress,
		UserAgent:        in.UserAgent,
		ScreenResolution: in.ScreenResolution,
		Language:         in.Language,
		Timezone:         in.Timezone,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&visit).Error; err != nil {
			return err
		}
		return LogCreate(tx, nil, "agent_visit", visit.ID, &visit)
	})
	if err != nil {
		return nil, nil, err
	}

	return &visit, agent, nil
}

// TrackSale records a referral-code-driven sale. Sale, commission, the code's
// used_count increment and both audit entries are written in one transaction;
// a failure in any step rolls back all of them.
func TrackSale(in TrackSaleInput) (*models.Sale, *models.Commission, *models.Agent, error) {
	referralCode, agent, err := resolveUsableCode(database.DB, in.ReferralCode)
	if err != nil {
		return nil, nil, nil, err
	}

	var sale models.Sale
	var commission models.Commission

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		resolved, err := ResolveCommissionRate(tx, agent, referralCode)
		if err != nil {
			return err
		}
		commissionAmount := CommissionAmount(in.SaleAmount, resolved.Rate)

		sale = models.Sale{
			AgentID:          agent.ID,
			Amount:           in.SaleAmount,
			CommissionAmount: commissionAmount,
			SaleDate:         in.SaleDate,
			BuyerEmail:       in.CustomerEmail,
			Description:      &in.ProductName,
			InvoiceNumber:    in.InvoiceNumber,
			IPAddress:        in.IPAddress,
			UserAgent:        in.UserAgent,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		commission = models.Commission{
			SaleID:           sale.ID,
			AgentID:          agent.ID,
			CommissionSource: resolved.Source,
			AppliedRate:      resolved.Rate,
			CommissionRate:   resolved.Rate,
			Amount:           commissionAmount,
			Status:           models.CommissionStatusPending,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return err
		}

		// Atomic SQL increment; a read-modify-write here would lose updates
		// under concurrent tracking calls.
		err = tx.Model(&models.ReferralCode{}).
			Where("id = ?", referralCode.ID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
		if err != nil {
			return err
		}

		if err := LogCreate(tx, nil, "sale", sale.ID, &sale); err != nil {
			return err
		}
		return LogCreate(tx, nil, "commission", commission.ID, &commission)
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return &sale, &commission, agent, nil
}

type RecordSaleInput struct {
	Amount        decimal.Decimal
	SaleDate      time.Time
	BuyerEmail    string
	Description   *string
	InvoiceNumber *string
}

// RecordSaleForAgent records a sale entered directly against an agent,
// without a referral code. The rate resolves agent override first, then the
// system default.
func RecordSaleForAgent(agent *models.Agent, actorID *uuid.UUID, in RecordSaleInput) (*models.Sale, *models.Commission, error) {
	if !agent.IsActive() {
		return nil, nil, ErrAgentUnavailable
	}

	var sale models.Sale
	var commission models.Commission

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		resolved, err := ResolveAgentRate(tx, agent)
		if err != nil {
			return err
		}
		commissionAmount := CommissionAmount(in.Amount, resolved.Rate)

		sale = models.Sale{
			AgentID:          agent.ID,
			Amount:           in.Amount,
			CommissionAmount: commissionAmount,
			SaleDate:         in.SaleDate,
			BuyerEmail:       in.BuyerEmail,
			Description:      in.Description,
			InvoiceNumber:    in.InvoiceNumber,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		commission = models.Commission{
			SaleID:           sale.ID,
			AgentID:          agent.ID,
			CommissionSource: resolved.Source,
			AppliedRate:      resolved.Rate,
			CommissionRate:   resolved.Rate,
			Amount:           commissionAmount,
			Status:           models.CommissionStatusPending,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return err
		}

		if err := LogCreate(tx, actorID, "sale", sale.ID, &sale); err != nil {
			return err
		}
		return LogCreate(tx, actorID, "commission", commission.ID, &commission)
	})
	if err != nil {
		return nil, nil, err
	}

	return &sale, &commission, nil
}

// ReferralCodeInfo returns public information about a usable code.
func ReferralCodeInfo(code string) (*models.ReferralCode, *models.Agent, error) {
	return resolveUsableCode(database.DB, code)
}
