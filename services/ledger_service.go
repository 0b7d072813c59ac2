// services/ledger_service.go
package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"streak-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// ensureBalanceRow inserts the user's wallet row if missing and returns it
// locked. Transactions that must serialize per user (purchase cap, claim,
// payout) all take this lock first, which also fixes the lock order:
// balance row, then challenges.
func ensureBalanceRow(tx *gorm.DB, userID string) (*models.UserBalance, error) {
	bal := models.UserBalance{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bal).Error; err != nil {
		return nil, err
	}
	if err := lockForUpdate(tx).Where("user_id = ?", userID).First(&bal).Error; err != nil {
		return nil, err
	}
	return &bal, nil
}

// Claim pays out pending rewards into the user's balance. With a challengeID
// it claims one challenge's rewards; empty claims everything pending. Each
// reward flips pending → paid with a guarded update, so a reward is paid at
// most once no matter how many claims race. Rewards survive challenge
// expiry, so claiming from an expired challenge is fine.
func (s *LedgerService) Claim(userID, challengeID string) (*models.ClaimResult, error) {
	var result *models.ClaimResult
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		bal, err := ensureBalanceRow(tx, userID)
		if err != nil {
			return err
		}

		if challengeID != "" {
			var ch models.Challenge
			if err := tx.Where("id = ? AND user_id = ?", challengeID, userID).First(&ch).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrChallengeNotFound
				}
				return err
			}
		}

		query := tx.Where("user_id = ? AND status = ?", userID, models.ChallengeRewardPending)
		if challengeID != "" {
			query = query.Where("challenge_id = ?", challengeID)
		}
		var pending []models.ChallengeReward
		if err := query.Order("challenge_id ASC, level ASC").Find(&pending).Error; err != nil {
			return err
		}

		now := time.Now()
		claimed := decimal.Zero
		count := 0
		for _, reward := range pending {
			res := tx.Model(&models.ChallengeReward{}).
				Where("id = ? AND status = ?", reward.ID, models.ChallengeRewardPending).
				Updates(map[string]interface{}{"status": models.ChallengeRewardPaid, "paid_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // another claim got here first, the reward stays theirs
			}

			var ch models.Challenge
			if err := lockForUpdate(tx).Where("id = ?", reward.ChallengeID).First(&ch).Error; err != nil {
				return err
			}
			ch.TotalPendingAmount = ch.TotalPendingAmount.Sub(reward.Amount)
			if ch.TotalPendingAmount.IsNegative() {
				ch.TotalPendingAmount = decimal.Zero
			}
			ch.SetLevelStateAt(reward.Level, models.LevelClaimed)
			if err := tx.Save(&ch).Error; err != nil {
				return err
			}

			claimed = claimed.Add(reward.Amount)
			count++
		}

		if count > 0 {
			bal.AvailableBalance = bal.AvailableBalance.Add(claimed)
			bal.TotalClaimed = bal.TotalClaimed.Add(claimed)
			if err := tx.Save(bal).Error; err != nil {
				return err
			}
		}

		result = &models.ClaimResult{
			ClaimedAmount:    claimed,
			ClaimedRewards:   count,
			AvailableBalance: bal.AvailableBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.ClaimedRewards > 0 {
		log.Printf("💰 Rewards claimed: user=%s count=%d amount=%s", userID, result.ClaimedRewards, result.ClaimedAmount)
	}
	return result, nil
}

// BalanceFor reads the user's wallet, zero-valued if they have no row yet
func (s *LedgerService) BalanceFor(userID string) (*models.UserBalance, error) {
	var bal models.UserBalance
	err := s.DB.Where("user_id = ?", userID).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserBalance{
			UserID:           userID,
			AvailableBalance: decimal.Zero,
			TotalClaimed:     decimal.Zero,
			TotalWithdrawn:   decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

// ListRewards returns the user's reward rows with optional filters
func (s *LedgerService) ListRewards(userID string, status *models.ChallengeRewardStatus, challengeID string) ([]models.ChallengeReward, error) {
	query := s.DB.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if challengeID != "" {
		query = query.Where("challenge_id = ?", challengeID)
	}

	var rewards []models.ChallengeReward
	err := query.Order("created_at DESC").Find(&rewards).Error
	return rewards, err
}

// --- User Handlers ---

// ClaimRewardsEndpoint moves pending rewards into the available balance
func (s *LedgerService) ClaimRewardsEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.ClaimRewardsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := s.Claim(userID, req.ChallengeID)
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error claiming rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim rewards"})
	}

	return c.JSON(result)
}

// GetRewardsEndpoint lists the authenticated user's rewards
func (s *LedgerService) GetRewardsEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	statusStr := c.Query("status")         // e.g., status=pending
	challengeID := c.Query("challenge_id") // narrow to one challenge

	if challengeID != "" {
		if _, err := uuid.Parse(challengeID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge_id parameter"})
		}
	}

	var statusFilter *models.ChallengeRewardStatus
	switch strings.ToLower(statusStr) {
	case "":
		// no filter
	case "pending", "paid", "forfeited":
		status := models.ChallengeRewardStatus(strings.ToLower(statusStr))
		statusFilter = &status
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status parameter"})
	}

	rewards, err := s.ListRewards(userID, statusFilter, challengeID)
	if err != nil {
		log.Printf("DB Error fetching rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rewards"})
	}

	bal, err := s.BalanceFor(userID)
	if err != nil {
		log.Printf("DB Error fetching balance: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch balance"})
	}

	return c.JSON(fiber.Map{
		"rewards":           rewards,
		"available_balance": bal.AvailableBalance,
	})
}
