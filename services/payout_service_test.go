package services

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func currentPeriod() (int, time.Month) {
	now := time.Now().UTC()
	return now.Year(), now.Month()
}

func commissionStatus(t *testing.T, db *gorm.DB, id uuid.UUID) string {
	t.Helper()
	var commission models.Commission
	if err := db.First(&commission, "id = ?", id).Error; err != nil {
		t.Fatalf("reload commission %s: %v", id, err)
	}
	return commission.Status
}

func TestCreatePayoutApprovesSelectionAndSumsItems(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	first := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	second := seedCommission(t, db, agent.ID, 25.50, models.CommissionStatusPending)
	unselected := seedCommission(t, db, agent.ID, 5.00, models.CommissionStatusApproved)

	year, month := currentPeriod()
	payout, err := CreatePayout(nil, BatchInput{
		AgentID:       agent.ID,
		Year:          year,
		Month:         month,
		CommissionIDs: []uuid.UUID{first.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	if !payout.Amount.Equal(decimal.NewFromFloat(35.50)) {
		t.Errorf("payout amount = %s, want 35.50", payout.Amount)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("payout status = %q, want pending", payout.Status)
	}

	var items []models.PayoutItem
	db.Where("payout_id = ?", payout.ID).Find(&items)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	if got := commissionStatus(t, db, first.ID); got != models.CommissionStatusApproved {
		t.Errorf("selected commission status = %q, want approved", got)
	}
	if got := commissionStatus(t, db, unselected.ID); got != models.CommissionStatusPending {
		t.Errorf("unselected commission status = %q, want pending", got)
	}
}

func TestCreatePayoutEmptySelection(t *testing.T) {
	setupTestDB(t)
	year, month := currentPeriod()

	_, err := CreatePayout(nil, BatchInput{AgentID: uuid.New(), Year: year, Month: month})
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
}

func TestCreatePayoutDropsCommissionsHeldElsewhere(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	held := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	free := seedCommission(t, db, agent.ID, 20.00, models.CommissionStatusPending)

	year, month := currentPeriod()
	firstPayout, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{held.ID},
	})
	if err != nil {
		t.Fatalf("first CreatePayout: %v", err)
	}

	secondPayout, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{held.ID, free.ID},
	})
	if err != nil {
		t.Fatalf("second CreatePayout: %v", err)
	}

	// The held commission stays with the first payout; the second batch
	// shrinks to what it could actually claim.
	if !secondPayout.Amount.Equal(decimal.NewFromFloat(20.00)) {
		t.Errorf("second payout amount = %s, want 20.00", secondPayout.Amount)
	}

	var items []models.PayoutItem
	db.Where("commission_id = ?", held.ID).Find(&items)
	if len(items) != 1 || items[0].PayoutID != firstPayout.ID {
		t.Errorf("held commission items = %+v, want exactly one in first payout", items)
	}

	if got := commissionStatus(t, db, held.ID); got != models.CommissionStatusApproved {
		t.Errorf("held commission status = %q, want approved", got)
	}
}

func TestConcurrentBatchesClaimEachCommissionOnce(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)

	commissions := []*models.Commission{
		seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending),
		seedCommission(t, db, agent.ID, 20.00, models.CommissionStatusPending),
		seedCommission(t, db, agent.ID, 30.00, models.CommissionStatusPending),
		seedCommission(t, db, agent.ID, 40.00, models.CommissionStatusPending),
	}

	year, month := currentPeriod()
	selections := [][]uuid.UUID{
		{commissions[0].ID, commissions[1].ID, commissions[2].ID},
		{commissions[1].ID, commissions[2].ID, commissions[3].ID},
	}

	var wg sync.WaitGroup
	payouts := make([]*models.Payout, len(selections))
	errs := make([]error, len(selections))
	for i := range selections {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payouts[i], errs[i] = CreatePayout(nil, BatchInput{
				AgentID:       agent.ID,
				Year:          year,
				Month:         month,
				CommissionIDs: selections[i],
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("CreatePayout %d: %v", i, err)
		}
	}

	// Exactly one payout holds any given commission, no matter how the two
	// batches interleaved.
	claimedTotal := decimal.Zero
	for _, commission := range commissions {
		var items []models.PayoutItem
		db.Where("commission_id = ?", commission.ID).Find(&items)
		if len(items) != 1 {
			t.Errorf("commission %s held by %d items, want 1", commission.ID, len(items))
			continue
		}
		claimedTotal = claimedTotal.Add(items[0].Amount)
	}

	batchTotal := payouts[0].Amount.Add(payouts[1].Amount)
	if !batchTotal.Equal(claimedTotal) {
		t.Errorf("sum of payout amounts = %s, want %s", batchTotal, claimedTotal)
	}
	if !claimedTotal.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("claimed total = %s, want 100.00", claimedTotal)
	}
}

func TestCreatePayoutDeselectionDoesNotTouchOtherPayoutsCommissions(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	held := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	free := seedCommission(t, db, agent.ID, 20.00, models.CommissionStatusPending)

	year, month := currentPeriod()
	if _, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{held.ID},
	}); err != nil {
		t.Fatalf("first CreatePayout: %v", err)
	}

	// Second batch does not select the held commission; re-evaluation must
	// not flip it back to pending under the first payout.
	if _, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{free.ID},
	}); err != nil {
		t.Fatalf("second CreatePayout: %v", err)
	}

	if got := commissionStatus(t, db, held.ID); got != models.CommissionStatusApproved {
		t.Errorf("held commission status = %q, want approved after unrelated batch", got)
	}
}

func TestUpdatePayoutReplacesItems(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	first := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	second := seedCommission(t, db, agent.ID, 30.00, models.CommissionStatusPending)

	year, month := currentPeriod()
	payout, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{first.ID},
	})
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	updated, err := UpdatePayout(nil, payout.ID, []uuid.UUID{second.ID}, false, nil)
	if err != nil {
		t.Fatalf("UpdatePayout: %v", err)
	}

	if !updated.Amount.Equal(decimal.NewFromFloat(30.00)) {
		t.Errorf("updated amount = %s, want 30.00", updated.Amount)
	}

	var items []models.PayoutItem
	db.Where("payout_id = ?", payout.ID).Find(&items)
	if len(items) != 1 || items[0].CommissionID != second.ID {
		t.Fatalf("items after update = %+v, want exactly the second commission", items)
	}

	// The deselected commission is released back to pending.
	if got := commissionStatus(t, db, first.ID); got != models.CommissionStatusPending {
		t.Errorf("deselected commission status = %q, want pending", got)
	}
	if got := commissionStatus(t, db, second.ID); got != models.CommissionStatusApproved {
		t.Errorf("newly selected commission status = %q, want approved", got)
	}
}

func TestUpdatePayoutReevaluatesOriginalPeriod(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)

	// Commissions from last month, batched this month. The edit must
	// re-evaluate last month's window, not the month of the edit.
	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	first := seedCommissionAt(t, db, agent.ID, 10.00, models.CommissionStatusPending, lastMonth)
	second := seedCommissionAt(t, db, agent.ID, 20.00, models.CommissionStatusPending, lastMonth)
	third := seedCommissionAt(t, db, agent.ID, 40.00, models.CommissionStatusPending, lastMonth)

	payout, err := CreatePayout(nil, BatchInput{
		AgentID:       agent.ID,
		Year:          lastMonth.Year(),
		Month:         lastMonth.Month(),
		CommissionIDs: []uuid.UUID{first.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if !payout.Amount.Equal(decimal.NewFromFloat(30.00)) {
		t.Fatalf("payout amount = %s, want 30.00", payout.Amount)
	}

	updated, err := UpdatePayout(nil, payout.ID, []uuid.UUID{first.ID, third.ID}, false, nil)
	if err != nil {
		t.Fatalf("UpdatePayout: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromFloat(50.00)) {
		t.Errorf("updated amount = %s, want 50.00", updated.Amount)
	}

	// The deselected prior-month commission is released, not left stuck
	// approved without an item.
	if got := commissionStatus(t, db, second.ID); got != models.CommissionStatusPending {
		t.Errorf("deselected commission status = %q, want pending", got)
	}
	// And the newly selected prior-month commission actually made it in.
	if got := commissionStatus(t, db, third.ID); got != models.CommissionStatusApproved {
		t.Errorf("newly selected commission status = %q, want approved", got)
	}

	eligible, err := EligibleCommissions(agent.ID, nil, nil)
	if err != nil {
		t.Fatalf("EligibleCommissions: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != second.ID {
		t.Errorf("eligible after edit = %+v, want only the released commission", eligible)
	}
}

func TestUpdatePayoutNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := UpdatePayout(nil, uuid.New(), []uuid.UUID{uuid.New()}, false, nil)
	if !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("err = %v, want ErrPayoutNotFound", err)
	}
}

func TestRequestPayoutStrictRejectsStaleSelection(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	valid := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	claimed := seedCommission(t, db, agent.ID, 20.00, models.CommissionStatusPending)

	year, month := currentPeriod()
	if _, err := CreatePayout(nil, BatchInput{
		AgentID: agent.ID, Year: year, Month: month,
		CommissionIDs: []uuid.UUID{claimed.ID},
	}); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	_, err := RequestPayout(nil, agent, []uuid.UUID{valid.ID, claimed.ID})
	if !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("err = %v, want ErrStaleSelection", err)
	}

	// All-or-nothing: the failed request must not leave a payout or items
	// for the still-valid commission.
	var payoutCount, itemCount int64
	db.Model(&models.Payout{}).Count(&payoutCount)
	db.Model(&models.PayoutItem{}).Where("commission_id = ?", valid.ID).Count(&itemCount)
	if payoutCount != 1 {
		t.Errorf("payouts = %d, want only the admin batch", payoutCount)
	}
	if itemCount != 0 {
		t.Errorf("items for valid commission = %d, want 0", itemCount)
	}
}

func TestRequestPayoutKeepsCommissionsPending(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	first := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	second := seedCommission(t, db, agent.ID, 15.25, models.CommissionStatusPending)

	payout, err := RequestPayout(nil, agent, []uuid.UUID{first.ID, second.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	if !payout.Amount.Equal(decimal.NewFromFloat(25.25)) {
		t.Errorf("payout amount = %s, want 25.25", payout.Amount)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("payout status = %q, want pending", payout.Status)
	}

	// The agent request claims commissions through items but leaves their
	// status to the admin review flow.
	if got := commissionStatus(t, db, first.ID); got != models.CommissionStatusPending {
		t.Errorf("commission status = %q, want pending", got)
	}

	// Claimed commissions are no longer eligible.
	eligible, err := EligibleCommissions(agent.ID, nil, nil)
	if err != nil {
		t.Fatalf("EligibleCommissions: %v", err)
	}
	if len(eligible) != 0 {
		t.Errorf("eligible after request = %d, want 0", len(eligible))
	}
}

func TestEligibleCommissionsFiltersStatusAndClaims(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	pending := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	seedCommission(t, db, agent.ID, 20.00, models.CommissionStatusPaid)

	other := seedAgent2(t, db)
	seedCommission(t, db, other.ID, 30.00, models.CommissionStatusPending)

	eligible, err := EligibleCommissions(agent.ID, nil, nil)
	if err != nil {
		t.Fatalf("EligibleCommissions: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != pending.ID {
		t.Fatalf("eligible = %+v, want only the pending commission", eligible)
	}
}

func seedAgent2(t *testing.T, db *gorm.DB) *models.Agent {
	t.Helper()
	name := "Other Agent"
	agent := models.Agent{ProfileType: "individual", IndividualName: &name, Status: models.AgentStatusActive}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("failed to seed second agent: %v", err)
	}
	return &agent
}

func TestMarkAsPaid(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	commission := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)

	payout, err := RequestPayout(nil, agent, []uuid.UUID{commission.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	paid, err := MarkAsPaid(nil, payout.ID)
	if err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}
	if paid.Status != models.PayoutStatusPaid {
		t.Errorf("status = %q, want paid", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("paid_at not set")
	}

	var reloaded models.Payout
	if err := db.First(&reloaded, "id = ?", payout.ID).Error; err != nil {
		t.Fatalf("reload payout: %v", err)
	}
	if reloaded.Status != models.PayoutStatusPaid {
		t.Errorf("persisted status = %q, want paid", reloaded.Status)
	}
}

func TestMarkAsPaidIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	commission := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)

	payout, err := RequestPayout(nil, agent, []uuid.UUID{commission.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	paid, err := MarkAsPaid(nil, payout.ID)
	if err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}

	if _, err := MarkAsPaid(nil, payout.ID); !errors.Is(err, ErrPayoutAlreadyPaid) {
		t.Fatalf("second MarkAsPaid err = %v, want ErrPayoutAlreadyPaid", err)
	}

	var reloaded models.Payout
	if err := db.First(&reloaded, "id = ?", payout.ID).Error; err != nil {
		t.Fatalf("reload payout: %v", err)
	}
	if reloaded.PaidAt == nil || !reloaded.PaidAt.Equal(*paid.PaidAt) {
		t.Errorf("paid_at changed by repeated call: %v, want %v", reloaded.PaidAt, paid.PaidAt)
	}
}

func TestMarkAsPaidNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := MarkAsPaid(nil, uuid.New())
	if !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("err = %v, want ErrPayoutNotFound", err)
	}
}

func TestAttachBankTransferFileRejectsBadExtension(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	commission := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	payout, err := RequestPayout(nil, agent, []uuid.UUID{commission.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	_, err = AttachBankTransferFile(nil, payout.ID, "evidence.exe", 128, bytes.NewReader([]byte("x")))
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}
}

func TestAttachBankTransferFileRejectsOversize(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)
	commission := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	payout, err := RequestPayout(nil, agent, []uuid.UUID{commission.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	_, err = AttachBankTransferFile(nil, payout.ID, "evidence.pdf", 11<<20, bytes.NewReader(nil))
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}
}

func TestAttachBankTransferFileStoresAndRecords(t *testing.T) {
	db := setupTestDB(t)
	t.Chdir(t.TempDir())

	agent := seedAgent(t, db, models.AgentStatusActive)
	commission := seedCommission(t, db, agent.ID, 10.00, models.CommissionStatusPending)
	payout, err := RequestPayout(nil, agent, []uuid.UUID{commission.ID})
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}

	content := []byte("%PDF-1.4 fake transfer evidence")
	updated, err := AttachBankTransferFile(nil, payout.ID, "evidence.pdf", int64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("AttachBankTransferFile: %v", err)
	}
	if updated.BankTransferFile == nil {
		t.Fatal("bank_transfer_file not recorded")
	}

	path, err := BankTransferFilePath(updated)
	if err != nil {
		t.Fatalf("BankTransferFilePath: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("stored size = %d, want %d", info.Size(), len(content))
	}
}
