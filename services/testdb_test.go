package services

import (
	"context"
	"path/filepath"
	"testing"

	"streak-challenge-system/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema. The busy
// timeout keeps concurrent-writer tests from failing instead of waiting.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.ChallengeReward{},
		&models.Bet{},
		&models.BetChallengeLink{},
		&models.Payout{},
		&models.UserBalance{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// stubCharger satisfies ResetFeeCharger without a payment service
type stubCharger struct {
	calls   int
	lastAmt decimal.Decimal
	err     error
}

func (s *stubCharger) ChargeResetFee(ctx context.Context, userID, challengeID string, amount decimal.Decimal) (string, error) {
	s.calls++
	s.lastAmt = amount
	if s.err != nil {
		return "", s.err
	}
	return "pay_test", nil
}

func mustPurchase(t *testing.T, svc *ChallengeService, userID string, tier int64, diff models.Difficulty) *models.Challenge {
	t.Helper()
	ch, err := svc.Purchase(userID, tier, diff)
	if err != nil {
		t.Fatalf("purchase tier=%d difficulty=%s: %v", tier, diff, err)
	}
	return ch
}

// forceExpire flips a challenge to expired directly, bypassing the sweep
func forceExpire(t *testing.T, db *gorm.DB, challengeID string) {
	t.Helper()
	if err := db.Model(&models.Challenge{}).
		Where("id = ?", challengeID).
		Update("status", models.ChallengeStatusExpired).Error; err != nil {
		t.Fatalf("force expire: %v", err)
	}
}

// fundBalance seeds a wallet row so payout tests do not have to replay the
// whole unlock-and-claim flow.
func fundBalance(t *testing.T, db *gorm.DB, userID string, amount decimal.Decimal) {
	t.Helper()
	bal := models.UserBalance{
		UserID:           userID,
		AvailableBalance: amount,
		TotalClaimed:     amount,
	}
	if err := db.Create(&bal).Error; err != nil {
		t.Fatalf("fund balance: %v", err)
	}
}
