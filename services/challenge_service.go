// services/challenge_service.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"streak-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB       *gorm.DB
	Payments ResetFeeCharger
}

func NewChallengeService(db *gorm.DB, payments ResetFeeCharger) *ChallengeService {
	return &ChallengeService{DB: db, Payments: payments}
}

// --- Core operations ---

// Purchase buys one challenge from the catalog. The active-count check runs
// inside the same transaction as the insert, behind the user's balance-row
// lock, so two concurrent purchases can never both slip under the cap.
func (s *ChallengeService) Purchase(userID string, tier int64, difficulty models.Difficulty) (*models.Challenge, error) {
	product, err := ProductFor(tier, difficulty)
	if err != nil {
		return nil, err
	}

	var created models.Challenge
	err = runSerialized(s.DB, func(tx *gorm.DB) error {
		if _, err := ensureBalanceRow(tx, userID); err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.Challenge{}).
			Where("user_id = ? AND status = ?", userID, models.ChallengeStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount >= models.MaxActiveChallenges {
			return models.ErrChallengeLimit
		}

		created = NewChallengeFromProduct(uuid.NewString(), userID, product, time.Now())
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Challenge purchased: user=%s tier=%d difficulty=%s expires=%s",
		userID, created.Tier, created.Difficulty, created.ExpiresAt.Format(time.RFC3339))
	return &created, nil
}

// ListForUser returns all of a user's challenges plus the active count
func (s *ChallengeService) ListForUser(userID string) ([]models.ChallengeView, int64, error) {
	var challenges []models.Challenge
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&challenges).Error; err != nil {
		return nil, 0, err
	}

	now := time.Now()
	views := make([]models.ChallengeView, 0, len(challenges))
	var active int64
	for _, ch := range challenges {
		if ch.Status == models.ChallengeStatusActive {
			active++
		}
		views = append(views, models.NewChallengeView(ch, now))
	}
	return views, active, nil
}

// GetForUser returns one challenge with its reward rows
func (s *ChallengeService) GetForUser(userID, challengeID string) (*models.ChallengeView, []models.ChallengeReward, error) {
	var ch models.Challenge
	if err := s.DB.Where("id = ? AND user_id = ?", challengeID, userID).First(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrChallengeNotFound
		}
		return nil, nil, err
	}

	var rewards []models.ChallengeReward
	if err := s.DB.Where("challenge_id = ?", ch.ID).
		Order("level ASC").
		Find(&rewards).Error; err != nil {
		return nil, nil, err
	}

	view := models.NewChallengeView(ch, time.Now())
	return &view, rewards, nil
}

// ExpireDue flips every active challenge whose window has passed. Called by
// the scheduler; one statement keeps the sweep cheap.
func (s *ChallengeService) ExpireDue() (int64, error) {
	res := s.DB.Model(&models.Challenge{}).
		Where("status = ? AND expires_at <= ?", models.ChallengeStatusActive, time.Now()).
		Update("status", models.ChallengeStatusExpired)
	return res.RowsAffected, res.Error
}

// Reset charges the reset fee and, only once the charge clears, issues a
// fresh challenge with the same tier and difficulty. The old record stays
// expired; its unclaimed rewards remain claimable.
func (s *ChallengeService) Reset(ctx context.Context, userID, challengeID string) (*models.Challenge, error) {
	var old models.Challenge
	if err := s.DB.Where("id = ? AND user_id = ?", challengeID, userID).First(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrChallengeNotFound
		}
		return nil, err
	}
	if old.Status != models.ChallengeStatusExpired {
		return nil, models.ErrChallengeNotExpired
	}

	// fresh window picks up the current catalog definition
	product, err := ProductFor(old.Tier, old.Difficulty)
	if err != nil {
		return nil, err
	}

	paymentID, err := s.Payments.ChargeResetFee(ctx, userID, old.ID, old.ResetFee)
	if err != nil {
		return nil, err
	}

	var fresh models.Challenge
	err = runSerialized(s.DB, func(tx *gorm.DB) error {
		if _, err := ensureBalanceRow(tx, userID); err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&models.Challenge{}).
			Where("user_id = ? AND status = ?", userID, models.ChallengeStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount >= models.MaxActiveChallenges {
			return models.ErrChallengeLimit
		}

		fresh = NewChallengeFromProduct(uuid.NewString(), userID, product, time.Now())
		return tx.Create(&fresh).Error
	})
	if err != nil {
		// fee already taken; this needs manual follow-up, so log loudly
		log.Printf("❌ Reset fee charged but challenge creation failed: user=%s payment=%s err=%v",
			userID, paymentID, err)
		return nil, err
	}

	log.Printf("🔄 Challenge reset: user=%s old=%s new=%s payment=%s", userID, old.ID, fresh.ID, paymentID)
	return &fresh, nil
}

// Cancel voids an active challenge. Pending rewards are forfeited in the
// same transaction; rewards already paid out stay paid.
func (s *ChallengeService) Cancel(challengeID, reason string) (*models.Challenge, error) {
	var cancelled models.Challenge
	var forfeited int64
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := lockForUpdate(tx).Where("id = ?", challengeID).First(&ch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrChallengeNotFound
			}
			return err
		}
		if ch.Status != models.ChallengeStatusActive {
			return models.ErrChallengeNotActive
		}

		res := tx.Model(&models.ChallengeReward{}).
			Where("challenge_id = ? AND status = ?", ch.ID, models.ChallengeRewardPending).
			Update("status", models.ChallengeRewardForfeited)
		if res.Error != nil {
			return res.Error
		}
		forfeited = res.RowsAffected

		ch.Status = models.ChallengeStatusCancelled
		ch.TotalPendingAmount = decimal.Zero
		if err := tx.Save(&ch).Error; err != nil {
			return err
		}
		cancelled = ch
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🛑 Challenge cancelled: id=%s forfeited_rewards=%d reason=%s", challengeID, forfeited, reason)
	return &cancelled, nil
}

// GrantStreak manually advances a challenge streak (support compensation).
// Crossing several thresholds at once unlocks every level in order.
func (s *ChallengeService) GrantStreak(challengeID string, wins int, reason string) (*models.Challenge, []models.UnlockedReward, error) {
	var updated models.Challenge
	var unlocked []models.UnlockedReward
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := lockForUpdate(tx).Where("id = ?", challengeID).First(&ch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrChallengeNotFound
			}
			return err
		}
		if ch.Status != models.ChallengeStatusActive {
			return models.ErrChallengeNotActive
		}

		unlocks := ApplyStreakGrant(&ch, wins)
		rewards, err := persistUnlocks(tx, &ch, unlocks, time.Now())
		if err != nil {
			return err
		}
		unlocked = rewards
		updated = ch
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("🎁 Streak granted: challenge=%s wins=%d unlocked=%d reason=%s",
		challengeID, wins, len(unlocked), reason)
	return &updated, unlocked, nil
}

// --- User Handlers ---

// GetChallengesEndpoint lists the authenticated user's challenges
func (s *ChallengeService) GetChallengesEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	views, active, err := s.ListForUser(userID)
	if err != nil {
		log.Printf("DB Error fetching challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch challenges"})
	}

	return c.JSON(fiber.Map{
		"challenges":      views,
		"current_count":   active,
		"max_allowed":     models.MaxActiveChallenges,
		"can_create_more": active < models.MaxActiveChallenges,
	})
}

// PurchaseChallengeEndpoint buys a new challenge for the authenticated user
func (s *ChallengeService) PurchaseChallengeEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.PurchaseChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ch, err := s.Purchase(userID, req.Tier, req.Difficulty)
	switch {
	case errors.Is(err, models.ErrUnknownProduct):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrChallengeLimit):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error purchasing challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to purchase challenge"})
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewChallengeView(*ch, time.Now()))
}

// GetCatalogEndpoint returns the purchasable products (public)
func (s *ChallengeService) GetCatalogEndpoint(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"products": ChallengeCatalog()})
}

// GetChallengeEndpoint returns one challenge with its reward history
func (s *ChallengeService) GetChallengeEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	challengeID := c.Params("id")

	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	view, rewards, err := s.GetForUser(userID, challengeID)
	if errors.Is(err, models.ErrChallengeNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	}
	if err != nil {
		log.Printf("DB Error fetching challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{"challenge": view, "rewards": rewards})
}

// ResetChallengeEndpoint re-purchases an expired challenge for the reset fee
func (s *ChallengeService) ResetChallengeEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	challengeID := c.Params("id")

	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	fresh, err := s.Reset(c.Context(), userID, challengeID)
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	case errors.Is(err, models.ErrChallengeNotExpired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrChallengeLimit):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrPaymentDeclined):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("Error resetting challenge %s: %v", challengeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset challenge"})
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewChallengeView(*fresh, time.Now()))
}

// --- Admin Handlers ---

// CancelChallengeEndpoint voids an active challenge (Admin only)
func (s *ChallengeService) CancelChallengeEndpoint(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req) // reason is optional

	ch, err := s.Cancel(challengeID, req.Reason)
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	case errors.Is(err, models.ErrChallengeNotActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error cancelling challenge %s: %v", challengeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel challenge"})
	}

	return c.JSON(fiber.Map{"message": "Challenge cancelled", "challenge": models.NewChallengeView(*ch, time.Now())})
}

// GrantStreakEndpoint manually advances a streak (Admin only)
func (s *ChallengeService) GrantStreakEndpoint(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	var req models.StreakGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ch, unlocked, err := s.GrantStreak(challengeID, req.Wins, req.Reason)
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	case errors.Is(err, models.ErrChallengeNotActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error granting streak on %s: %v", challengeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to grant streak"})
	}

	return c.JSON(fiber.Map{
		"challenge":        models.NewChallengeView(*ch, time.Now()),
		"unlocked_rewards": unlocked,
	})
}
