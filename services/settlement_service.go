// services/settlement_service.go
package services

import (
	"errors"
	"log"
	"time"

	"streak-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettlementService struct {
	DB *gorm.DB
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{DB: db}
}

// persistUnlocks writes one reward row per unlocked level and saves the
// challenge. Shared by settlement and the manual streak grant.
func persistUnlocks(tx *gorm.DB, ch *models.Challenge, unlocks []LevelUnlock, now time.Time) ([]models.UnlockedReward, error) {
	out := make([]models.UnlockedReward, 0, len(unlocks))
	for _, u := range unlocks {
		reward := models.ChallengeReward{
			ID:          uuid.NewString(),
			ChallengeID: ch.ID,
			UserID:      ch.UserID,
			Level:       u.Level,
			Amount:      u.Amount,
			Status:      models.ChallengeRewardPending,
			UnlockedAt:  now,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return nil, err
		}
		out = append(out, models.UnlockedReward{ChallengeID: ch.ID, Level: u.Level, Amount: u.Amount})
	}
	if err := tx.Save(ch).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ApplySettlement records a bet result and fans it out across every linked
// challenge in one transaction: all streaks move together or none do.
//
// The bet row carries the idempotency marker. Re-delivering the same result
// is a successful no-op; a different result for an applied bet is rejected.
// Linked challenges that are no longer active are skipped, never failed.
func (s *SettlementService) ApplySettlement(betID string, result models.BetResult) (*models.SettlementSummary, error) {
	var summary *models.SettlementSummary
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		out := &models.SettlementSummary{
			BetID:             betID,
			Result:            result,
			AppliedChallenges: []string{},
			SkippedChallenges: []string{},
			UnlockedRewards:   []models.UnlockedReward{},
		}

		var bet models.Bet
		if err := lockForUpdate(tx).Where("id = ?", betID).First(&bet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrBetNotFound
			}
			return err
		}

		if bet.SettlementApplied {
			if bet.Result != result {
				return models.ErrBetAlreadySettled
			}
			out.AlreadyApplied = true
			summary = out
			return nil
		}

		var links []models.BetChallengeLink
		if err := tx.Where("bet_id = ?", bet.ID).
			Order("challenge_id ASC"). // stable lock order across concurrent settlements
			Find(&links).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, link := range links {
			var ch models.Challenge
			if err := lockForUpdate(tx).Where("id = ?", link.ChallengeID).First(&ch).Error; err != nil {
				return err
			}
			if ch.Status != models.ChallengeStatusActive {
				out.SkippedChallenges = append(out.SkippedChallenges, ch.ID)
				continue
			}

			unlocks := ApplyBetOutcome(&ch, BetOutcome{
				BetID:       bet.ID,
				Result:      result,
				OddsDecimal: bet.OddsDecimal,
				MinOdds:     link.MinOddsSnapshot,
			})
			rewards, err := persistUnlocks(tx, &ch, unlocks, now)
			if err != nil {
				return err
			}
			out.UnlockedRewards = append(out.UnlockedRewards, rewards...)
			out.AppliedChallenges = append(out.AppliedChallenges, ch.ID)
		}

		bet.Result = result
		bet.SettlementApplied = true
		bet.SettledAt = &now
		if err := tx.Save(&bet).Error; err != nil {
			return err
		}

		summary = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	if summary.AlreadyApplied {
		log.Printf("📥 Settlement redelivered for bet %s, already applied", betID)
	} else {
		log.Printf("📥 Bet settled: id=%s result=%s challenges=%d skipped=%d unlocked=%d",
			betID, result, len(summary.AppliedChallenges), len(summary.SkippedChallenges), len(summary.UnlockedRewards))
	}
	return summary, nil
}

// --- Service Handlers ---

// SettleBetEndpoint applies a final result to a bet. Called by the
// settlement pipeline or admins, never by end users.
func (s *SettlementService) SettleBetEndpoint(c *fiber.Ctx) error {
	betID := c.Params("id")
	if _, err := uuid.Parse(betID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bet ID"})
	}

	var req models.SettleBetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := s.ApplySettlement(betID, req.Result)
	switch {
	case errors.Is(err, models.ErrBetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bet not found"})
	case errors.Is(err, models.ErrBetAlreadySettled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error settling bet %s: %v", betID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to settle bet"})
	}

	return c.JSON(summary)
}
