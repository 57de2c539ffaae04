package utils

import (
	"math/rand"
	"time"

	"github.com/penurwill/agent_network/models"
	"gorm.io/gorm"
)

const referralCodeSuffixLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueReferralCode builds a prefixed code and retries until it does
// not collide with an existing one.
func GenerateUniqueReferralCode(tx *gorm.DB, prefix string) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referralCodeSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := prefix + string(b)

		var existing models.ReferralCode
		err := tx.Where("code = ?", code).First(&existing).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}

// GenerateUniquePartnerCode does the same against the partners table.
func GenerateUniquePartnerCode(tx *gorm.DB, prefix string) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referralCodeSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := prefix + string(b)

		var existing models.Partner
		err := tx.Where("code = ?", code).First(&existing).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}
