package services

import (
	"testing"

	"github.com/penurwill/agent_network/models"
	"github.com/shopspring/decimal"
)

func TestResolveCommissionRateCodeRateWins(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, 10)
	agent := seedAgent(t, db, models.AgentStatusActive)
	code := seedCode(t, db, agent.ID, "REFAAAA1111", ratePtr(15), nil)

	override := models.AgentCommissionRate{AgentID: agent.ID, CustomRate: ratePtr(12)}
	if err := db.Create(&override).Error; err != nil {
		t.Fatalf("failed to seed override: %v", err)
	}

	resolved, err := ResolveCommissionRate(db, agent, code)
	if err != nil {
		t.Fatalf("ResolveCommissionRate: %v", err)
	}
	if resolved.Source != models.CommissionSourceReferralCode {
		t.Errorf("source = %q, want %q", resolved.Source, models.CommissionSourceReferralCode)
	}
	if !resolved.Rate.Equal(decimal.NewFromInt(15)) {
		t.Errorf("rate = %s, want 15", resolved.Rate)
	}
}

func TestResolveCommissionRateNilCodeRateFallsThrough(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, 10)
	agent := seedAgent(t, db, models.AgentStatusActive)
	code := seedCode(t, db, agent.ID, "REFAAAA1111", nil, nil)

	resolved, err := ResolveCommissionRate(db, agent, code)
	if err != nil {
		t.Fatalf("ResolveCommissionRate: %v", err)
	}
	if resolved.Source != models.CommissionSourceSystemDefault {
		t.Errorf("source = %q, want %q", resolved.Source, models.CommissionSourceSystemDefault)
	}
	if !resolved.Rate.Equal(decimal.NewFromInt(10)) {
		t.Errorf("rate = %s, want 10", resolved.Rate)
	}
}

func TestResolveAgentRateOverrideBeatsDefault(t *testing.T) {
	db := setupTestDB(t)
	seedSettings(t, db, 10)
	agent := seedAgent(t, db, models.AgentStatusActive)

	override := models.AgentCommissionRate{AgentID: agent.ID, CustomRate: ratePtr(12.5)}
	if err := db.Create(&override).Error; err != nil {
		t.Fatalf("failed to seed override: %v", err)
	}

	resolved, err := ResolveAgentRate(db, agent)
	if err != nil {
		t.Fatalf("ResolveAgentRate: %v", err)
	}
	if resolved.Source != models.CommissionSourceAgentRate {
		t.Errorf("source = %q, want %q", resolved.Source, models.CommissionSourceAgentRate)
	}
	if !resolved.Rate.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("rate = %s, want 12.5", resolved.Rate)
	}
}

func TestResolveAgentRateMissingSettingsRowFails(t *testing.T) {
	db := setupTestDB(t)
	agent := seedAgent(t, db, models.AgentStatusActive)

	if _, err := ResolveAgentRate(db, agent); err == nil {
		t.Fatal("expected error when system settings row is missing")
	}
}

func TestCommissionAmountRounding(t *testing.T) {
	cases := []struct {
		amount string
		rate   string
		want   string
	}{
		{"100.00", "10", "10"},
		{"33.33", "10", "3.33"},
		{"99.99", "12.5", "12.5"},
		{"0.01", "10", "0"},
		{"150.75", "7.25", "10.93"},
	}

	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		rate, _ := decimal.NewFromString(tc.rate)
		want, _ := decimal.NewFromString(tc.want)

		got := CommissionAmount(amount, rate)
		if !got.Equal(want) {
			t.Errorf("CommissionAmount(%s, %s) = %s, want %s", tc.amount, tc.rate, got, want)
		}
	}
}
