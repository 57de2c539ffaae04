package jobs

import (
	"log"
	"time"

	"github.com/penurwill/agent_network/database"
	"github.com/penurwill/agent_network/models"
)

// DeactivateExpiredCodes flips referral codes past their expires_at to
// inactive so the tracking endpoints stop accepting them. Codes without an
// expiry never expire.
func DeactivateExpiredCodes() {
	log.Println("Running job: DeactivateExpiredCodes...")

	result := database.DB.Model(&models.ReferralCode{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)

	if result.Error != nil {
		log.Printf("Error deactivating expired referral codes: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("✅ Deactivated %d expired referral codes", result.RowsAffected)
	}
}
