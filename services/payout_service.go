package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodBounds returns the half-open [start, end) commission creation window
// for a payout batch month.
func PeriodBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// EligibleCommissions returns the agent's pending commissions not already
// held by a non-deleted payout item, optionally filtered on sale_date.
func EligibleCommissions(agentID uuid.UUID, startDate, endDate *time.Time) ([]models.Commission, error) {
	query := database.DB.Preload("Sale").
		Joins("JOIN sales ON sales.id = commissions.sale_id").
		Where("commissions.agent_id = ? AND commissions.status = ?", agentID, models.CommissionStatusPending).
		Where("NOT EXISTS (SELECT 1 FROM payout_items WHERE payout_items.commission_id = commissions.id AND payout_items.deleted_at IS NULL)")

	if startDate != nil && endDate != nil {
		query = query.Where("sales.sale_date BETWEEN ? AND ?", *startDate, *endDate)
	}

	var commissions []models.Commission
	if err := query.Order("sales.sale_date DESC").Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

type BatchInput struct {
	AgentID       uuid.UUID
	Year          int
	Month         time.Month
	CommissionIDs []uuid.UUID
	IsPaid        bool
	PaidAt        *time.Time
}

// heldByOtherPayout reports whether a non-deleted payout item outside the
// given payout already claims the commission.
func heldByOtherPayout(tx *gorm.DB, commissionID uuid.UUID, payoutID *uuid.UUID) (bool, error) {
	query := tx.Model(&models.PayoutItem{}).Where("commission_id = ?", commissionID)
	if payoutID != nil {
		query = query.Where("payout_id <> ?", *payoutID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// reevaluateCommissionStatuses flips every commission in the agent's batch
// period to approved when selected and back to pending otherwise.
//
// Commissions claimed by an item of a different payout are left untouched so
// a batch edit can never silently un-approve another payout's line items.
// Each transition is a conditional update guarded on the observed status;
// RowsAffected == 0 means a concurrent writer got there first, and the
// commission is tolerantly skipped.
func reevaluateCommissionStatuses(tx *gorm.DB, actorID *uuid.UUID, agentID uuid.UUID, start, end time.Time, selected map[uuid.UUID]bool, payoutID *uuid.UUID) error {
	var commissions []models.Commission
	err := tx.Where("agent_id = ? AND created_at >= ? AND created_at < ?", agentID, start, end).
		Find(&commissions).Error
	if err != nil {
		return err
	}

	for i := range commissions {
		commission := commissions[i]

		newStatus := models.CommissionStatusPending
		if selected[commission.ID] {
			newStatus = models.CommissionStatusApproved
		}
		if commission.Status == newStatus || commission.Status == models.CommissionStatusPaid {
			continue
		}

		held, err := heldByOtherPayout(tx, commission.ID, payoutID)
		if err != nil {
			return err
		}
		if held {
			continue
		}

		result := tx.Model(&models.Commission{}).
			Where("id = ? AND status = ?", commission.ID, commission.Status).
			Update("status", newStatus)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}

		after := commission
		after.Status = newStatus
		if err := LogUpdate(tx, actorID, "commission", commission.ID, &commission, &after); err != nil {
			return err
		}
	}

	return nil
}

// createItemsForSelection snapshots each selected commission into a payout
// item, provided the commission verifies as approved inside the transaction
// and no other payout holds it. Commissions failing either check are dropped
// without error; the returned total over the created items is the source of
// truth for the payout amount.
func createItemsForSelection(tx *gorm.DB, payout *models.Payout, commissionIDs []uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero

	for _, commissionID := range commissionIDs {
		var commission models.Commission
		err := tx.Where("id = ? AND agent_id = ?", commissionID, payout.AgentID).First(&commission).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return total, err
		}
		if commission.Status != models.CommissionStatusApproved {
			continue
		}

		held, err := heldByOtherPayout(tx, commission.ID, &payout.ID)
		if err != nil {
			return total, err
		}
		if held {
			continue
		}

		item := models.PayoutItem{
			PayoutID:     payout.ID,
			CommissionID: commission.ID,
			Amount:       commission.Amount,
		}
		if err := tx.Create(&item).Error; err != nil {
			return total, err
		}
		total = total.Add(commission.Amount)
	}

	return total, nil
}

// CreatePayout batches the selected commissions of an agent's month into a
// new payout. Admin batching is tolerant: stale selections shrink the batch
// instead of failing it.
func CreatePayout(actorID *uuid.UUID, in BatchInput) (*models.Payout, error) {
	if len(in.CommissionIDs) == 0 {
		return nil, ErrEmptySelection
	}

	selected := make(map[uuid.UUID]bool, len(in.CommissionIDs))
	for _, id := range in.CommissionIDs {
		selected[id] = true
	}

	var payout models.Payout
	start, end := PeriodBounds(in.Year, in.Month)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := reevaluateCommissionStatuses(tx, actorID, in.AgentID, start, end, selected, nil); err != nil {
			return err
		}

		status := models.PayoutStatusPending
		var paidAt *time.Time
		if in.IsPaid {
			status = models.PayoutStatusPaid
			paidAt = in.PaidAt
		}

		payout = models.Payout{
			AgentID:     in.AgentID,
			Amount:      decimal.Zero,
			PeriodStart: start,
			PeriodEnd:   end,
			Status:      status,
			PaidAt:      paidAt,
			CreatedBy:   actorID,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		total, err := createItemsForSelection(tx, &payout, in.CommissionIDs)
		if err != nil {
			return err
		}

		// Amount must equal the sum of the items actually created, never the
		// client's possibly-stale claim.
		payout.Amount = total
		if err := tx.Model(&payout).Update("amount", total).Error; err != nil {
			return err
		}

		return LogCreate(tx, actorID, "payout", payout.ID, &payout)
	})
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

// UpdatePayout re-batches an existing payout: the same period re-evaluation
// as CreatePayout scoped to the payout's original month, then a full replace
// of its items. Items not in the new selection are discarded.
func UpdatePayout(actorID *uuid.UUID, payoutID uuid.UUID, commissionIDs []uuid.UUID, isPaid bool, paidAt *time.Time) (*models.Payout, error) {
	if len(commissionIDs) == 0 {
		return nil, ErrEmptySelection
	}

	var payout models.Payout
	if err := database.DB.First(&payout, "id = ?", payoutID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	selected := make(map[uuid.UUID]bool, len(commissionIDs))
	for _, id := range commissionIDs {
		selected[id] = true
	}

	before := payout

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Re-evaluation stays scoped to the period the payout was batched
		// for, not the month the edit happens in.
		if err := reevaluateCommissionStatuses(tx, actorID, payout.AgentID, payout.PeriodStart, payout.PeriodEnd, selected, &payout.ID); err != nil {
			return err
		}

		if err := tx.Where("payout_id = ?", payout.ID).Delete(&models.PayoutItem{}).Error; err != nil {
			return err
		}

		total, err := createItemsForSelection(tx, &payout, commissionIDs)
		if err != nil {
			return err
		}

		payout.Amount = total
		payout.Status = models.PayoutStatusPending
		payout.PaidAt = nil
		if isPaid {
			payout.Status = models.PayoutStatusPaid
			payout.PaidAt = paidAt
		}
		updates := map[string]interface{}{
			"amount":  payout.Amount,
			"status":  payout.Status,
			"paid_at": payout.PaidAt,
		}
		if err := tx.Model(&payout).Updates(updates).Error; err != nil {
			return err
		}

		return LogUpdate(tx, actorID, "payout", payout.ID, &before, &payout)
	})
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

// RequestPayout is the agent-initiated batch. Unlike admin batching it is
// strict: every submitted commission must still be pending, owned by the
// agent and unclaimed at transaction time, or nothing is created.
func RequestPayout(actorID *uuid.UUID, agent *models.Agent, commissionIDs []uuid.UUID) (*models.Payout, error) {
	if len(commissionIDs) == 0 {
		return nil, ErrEmptySelection
	}

	var payout models.Payout

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var commissions []models.Commission
		err := tx.Where("id IN ? AND agent_id = ? AND status = ?", commissionIDs, agent.ID, models.CommissionStatusPending).
			Where("NOT EXISTS (SELECT 1 FROM payout_items WHERE payout_items.commission_id = commissions.id AND payout_items.deleted_at IS NULL)").
			Find(&commissions).Error
		if err != nil {
			return err
		}

		if len(commissions) != len(commissionIDs) {
			return ErrStaleSelection
		}

		total := decimal.Zero
		for _, commission := range commissions {
			total = total.Add(commission.Amount)
		}

		// The batch period spans the creation months of every selected
		// commission, so a later admin edit re-evaluates the same window.
		start, end := PeriodBounds(commissions[0].CreatedAt.Year(), commissions[0].CreatedAt.Month())
		for _, commission := range commissions[1:] {
			s, e := PeriodBounds(commission.CreatedAt.Year(), commission.CreatedAt.Month())
			if s.Before(start) {
				start = s
			}
			if e.After(end) {
				end = e
			}
		}

		payout = models.Payout{
			AgentID:     agent.ID,
			Amount:      total,
			PeriodStart: start,
			PeriodEnd:   end,
			Status:      models.PayoutStatusPending,
			CreatedBy:   actorID,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		for _, commission := range commissions {
			item := models.PayoutItem{
				PayoutID:     payout.ID,
				CommissionID: commission.ID,
				Amount:       commission.Amount,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return LogCreate(tx, actorID, "payout", payout.ID, &payout)
	})
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

// MarkAsPaid is the terminal payout transition. Notification side effects run
// after commit and never roll the transition back.
func MarkAsPaid(actorID *uuid.UUID, payoutID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := database.DB.Preload("Agent").First(&payout, "id = ?", payoutID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	// Paid is terminal; a repeat call must not overwrite paid_at or re-fire
	// the notification side effects.
	if payout.Status == models.PayoutStatusPaid {
		return nil, ErrPayoutAlreadyPaid
	}

	before := payout
	now := time.Now()

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		payout.Status = models.PayoutStatusPaid
		payout.PaidAt = &now
		updates := map[string]interface{}{
			"status":  payout.Status,
			"paid_at": payout.PaidAt,
		}
		if err := tx.Model(&payout).Updates(updates).Error; err != nil {
			return err
		}
		return LogUpdate(tx, actorID, "payout", payout.ID, &before, &payout)
	})
	if err != nil {
		return nil, err
	}

	return &payout, nil
}

const (
	bankTransferDir     = "storage/payouts"
	bankTransferMaxSize = 10 << 20
)

var bankTransferExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AttachBankTransferFile stores the transfer evidence under a payout-scoped
// path and records it on the payout. The row is only updated after the write
// is verified on disk.
func AttachBankTransferFile(actorID *uuid.UUID, payoutID uuid.UUID, originalName string, size int64, content io.Reader) (*models.Payout, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !bankTransferExtensions[ext] || size <= 0 || size > bankTransferMaxSize {
		return nil, ErrInvalidFile
	}

	var payout models.Payout
	if err := database.DB.First(&payout, "id = ?", payoutID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	if err := os.MkdirAll(bankTransferDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := fmt.Sprintf("payout_%s_%d%s", payout.ID, time.Now().Unix(), ext)
	filePath := filepath.Join(bankTransferDir, fileName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	written, err := io.Copy(dst, content)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil || info.Size() != written {
		os.Remove(filePath)
		return nil, fmt.Errorf("file was not saved correctly")
	}

	before := payout

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		payout.BankTransferFile = &fileName
		if err := tx.Model(&payout).Update("bank_transfer_file", fileName).Error; err != nil {
			return err
		}
		return LogUpdate(tx, actorID, "payout", payout.ID, &before, &payout)
	})
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return &payout, nil
}

// BankTransferFilePath resolves the stored evidence file for download.
func BankTransferFilePath(payout *models.Payout) (string, error) {
	if payout.BankTransferFile == nil {
		return "", ErrInvalidFile
	}
	path := filepath.Join(bankTransferDir, *payout.BankTransferFile)
	if _, err := os.Stat(path); err != nil {
		return "", ErrInvalidFile
	}
	return path, nil
}
