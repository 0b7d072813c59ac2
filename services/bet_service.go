// services/bet_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"streak-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BetService struct {
	DB *gorm.DB
}

func NewBetService(db *gorm.DB) *BetService {
	return &BetService{DB: db}
}

// PlaceBet records a wager and links it to the given challenges. Each link
// snapshots the challenge's odds floor and difficulty at placement time, so
// settlement later judges the bet against what the user actually saw.
//
// Every linked challenge must be active, owned by the user, and satisfied by
// the bet's odds, or the whole placement fails.
func (s *BetService) PlaceBet(userID string, req *models.PlaceBetRequest) (*models.Bet, error) {
	var bet models.Bet
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		bet = models.Bet{
			ID:          uuid.NewString(),
			UserID:      userID,
			EventID:     req.EventID,
			Market:      req.Market,
			Selection:   req.Selection,
			Stake:       decimal.NewFromFloat(req.Stake),
			OddsDecimal: req.OddsDecimal,
			Result:      models.BetResultPending,
		}

		seen := make(map[string]bool, len(req.ChallengeIDs))
		for _, challengeID := range req.ChallengeIDs {
			if seen[challengeID] {
				continue
			}
			seen[challengeID] = true

			var ch models.Challenge
			if err := tx.Where("id = ? AND user_id = ?", challengeID, userID).First(&ch).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrChallengeNotFound
				}
				return err
			}
			if ch.Status != models.ChallengeStatusActive {
				return models.ErrChallengeNotActive
			}
			if req.OddsDecimal < ch.MinOdds {
				return models.ErrOddsBelowMinimum
			}

			bet.Links = append(bet.Links, models.BetChallengeLink{
				ID:                 uuid.NewString(),
				BetID:              bet.ID,
				ChallengeID:        ch.ID,
				MinOddsSnapshot:    ch.MinOdds,
				DifficultySnapshot: ch.Difficulty,
			})
		}

		return tx.Create(&bet).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Bet placed: user=%s event=%s odds=%.2f links=%d", userID, bet.EventID, bet.OddsDecimal, len(bet.Links))
	return &bet, nil
}

// ListForUser returns the user's bets, newest first
func (s *BetService) ListForUser(userID string, result *models.BetResult, limit *int) ([]models.Bet, error) {
	query := s.DB.Where("user_id = ?", userID)
	if result != nil {
		query = query.Where("result = ?", *result)
	}

	dbQuery := query.Preload("Links").Order("created_at DESC")
	if limit != nil {
		dbQuery = dbQuery.Limit(*limit)
	}

	var bets []models.Bet
	err := dbQuery.Find(&bets).Error
	return bets, err
}

// --- User Handlers ---

// PlaceBetEndpoint records a wager for the authenticated user
func (s *BetService) PlaceBetEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.PlaceBetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bet, err := s.PlaceBet(userID, &req)
	switch {
	case errors.Is(err, models.ErrChallengeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
	case errors.Is(err, models.ErrChallengeNotActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrOddsBelowMinimum):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error placing bet: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to place bet"})
	}

	return c.Status(fiber.StatusCreated).JSON(bet)
}

// GetBetsEndpoint lists the authenticated user's bets with optional filters
func (s *BetService) GetBetsEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limitStr := c.Query("limit")   // e.g., limit=20
	resultStr := c.Query("result") // e.g., result=won

	var limit *int
	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = &l
	}

	var resultFilter *models.BetResult
	switch strings.ToLower(resultStr) {
	case "":
		// no filter
	case "pending", "won", "lost", "push":
		r := models.BetResult(strings.ToLower(resultStr))
		resultFilter = &r
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid result parameter"})
	}

	bets, err := s.ListForUser(userID, resultFilter, limit)
	if err != nil {
		log.Printf("DB Error fetching bets: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bets"})
	}

	return c.JSON(bets)
}
