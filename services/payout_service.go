// services/payout_service.go
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
)

type PayoutService struct {
	DB *gorm.DB
}

func NewPayoutService(db *gorm.DB) *PayoutService {
	return &PayoutService{DB: db}
}

// validatePayoutDetails enforces the destination fields each method needs:
// bank wants iban + account name, paypal an email, crypto a wallet + network.
func validatePayoutDetails(method models.PaymentMethod, d models.PayoutDetails) error {
	switch method {
	case models.PaymentMethodBank:
		if strings.TrimSpace(d.IBAN) == "" || strings.TrimSpace(d.AccountName) == "" {
			return models.ErrInvalidPayoutDetails
		}
	case models.PaymentMethodPayPal:
		if strings.TrimSpace(d.Email) == "" || !strings.Contains(d.Email, "@") {
			return models.ErrInvalidPayoutDetails
		}
	case models.PaymentMethodCrypto:
		if strings.TrimSpace(d.WalletAddress) == "" || strings.TrimSpace(d.Network) == "" {
			return models.ErrInvalidPayoutDetails
		}
	default:
		return models.ErrInvalidPayoutDetails
	}
	return nil
}

// Request creates a pending payout. The amount is checked against and
// deducted from the available balance in one transaction, so racing requests
// cannot reserve the same funds twice.
func (s *PayoutService) Request(userID string, req *models.PayoutRequest) (*models.Payout, error) {
	amount := decimal.NewFromFloat(req.Amount)
	if amount.LessThan(models.MinPayoutAmount) {
		return nil, models.ErrPayoutBelowMinimum
	}
	if err := validatePayoutDetails(req.PaymentMethod, req.Details); err != nil {
		return nil, err
	}

	var payout models.Payout
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		bal, err := ensureBalanceRow(tx, userID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(bal.AvailableBalance) {
			return models.ErrInsufficientBalance
		}

		payout = models.Payout{
			ID:            uuid.NewString(),
			UserID:        userID,
			Amount:        amount,
			PaymentMethod: req.PaymentMethod,
			Details:       req.Details,
			Status:        models.PayoutStatusPending,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		bal.AvailableBalance = bal.AvailableBalance.Sub(amount)
		bal.TotalWithdrawn = bal.TotalWithdrawn.Add(amount)
		return tx.Save(bal).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💸 Payout requested: user=%s amount=%s method=%s", userID, payout.Amount, payout.PaymentMethod)
	return &payout, nil
}

// UpdateStatus moves a payout through its state machine. Rejection refunds
// the reserved amount in the same transaction; completed and rejected are
// terminal. Re-applying the current status is a no-op so the rails feed can
// redeliver events safely.
func (s *PayoutService) UpdateStatus(payoutID string, next models.PayoutStatus, reason string) (*models.Payout, error) {
	var updated models.Payout
	err := runSerialized(s.DB, func(tx *gorm.DB) error {
		var p models.Payout
		if err := lockForUpdate(tx).Where("id = ?", payoutID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrPayoutNotFound
			}
			return err
		}

		if p.Status == next {
			updated = p
			return nil
		}
		if !p.Status.CanTransitionTo(next) {
			return models.ErrInvalidStatusTransition
		}

		p.Status = next
		if next == models.PayoutStatusRejected {
			p.RejectReason = reason
		}
		if next == models.PayoutStatusCompleted || next == models.PayoutStatusRejected {
			now := time.Now()
			p.ProcessedAt = &now
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		if next == models.PayoutStatusRejected {
			bal, err := ensureBalanceRow(tx, p.UserID)
			if err != nil {
				return err
			}
			bal.AvailableBalance = bal.AvailableBalance.Add(p.Amount)
			bal.TotalWithdrawn = bal.TotalWithdrawn.Sub(p.Amount)
			if err := tx.Save(bal).Error; err != nil {
				return err
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔁 Payout %s → %s", payoutID, updated.Status)
	return &updated, nil
}

// ListForUser returns the user's payouts, newest first
func (s *PayoutService) ListForUser(userID string, status *models.PayoutStatus) ([]models.Payout, error) {
	query := s.DB.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var payouts []models.Payout
	err := query.Order("created_at DESC").Find(&payouts).Error
	return payouts, err
}

// --- User Handlers ---

// RequestPayoutEndpoint creates a withdrawal for the authenticated user
func (s *PayoutService) RequestPayoutEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req models.PayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payout, err := s.Request(userID, &req)
	switch {
	case errors.Is(err, models.ErrPayoutBelowMinimum):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidPayoutDetails):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error requesting payout: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to request payout"})
	}

	return c.Status(fiber.StatusCreated).JSON(payout)
}

// GetPayoutsEndpoint lists the authenticated user's payouts plus the balance
// still available to withdraw
func (s *PayoutService) GetPayoutsEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	statusStr := c.Query("status") // e.g., status=pending
	var statusFilter *models.PayoutStatus
	switch strings.ToLower(statusStr) {
	case "":
		// no filter
	case "pending", "processing", "completed", "rejected":
		status := models.PayoutStatus(strings.ToLower(statusStr))
		statusFilter = &status
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status parameter"})
	}

	payouts, err := s.ListForUser(userID, statusFilter)
	if err != nil {
		log.Printf("DB Error fetching payouts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payouts"})
	}

	var bal models.UserBalance
	available := decimal.Zero
	err = s.DB.Where("user_id = ?", userID).First(&bal).Error
	if err == nil {
		available = bal.AvailableBalance
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("DB Error fetching balance: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch balance"})
	}

	return c.JSON(fiber.Map{
		"payouts":           payouts,
		"available_balance": available,
	})
}

// --- Admin Handlers ---

// UpdatePayoutStatusEndpoint advances a payout (Admin / payment rails)
func (s *PayoutService) UpdatePayoutStatusEndpoint(c *fiber.Ctx) error {
	payoutID := c.Params("id")
	if _, err := uuid.Parse(payoutID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payout ID"})
	}

	var req models.UpdatePayoutStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payout, err := s.UpdateStatus(payoutID, req.Status, req.Reason)
	switch {
	case errors.Is(err, models.ErrPayoutNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payout not found"})
	case errors.Is(err, models.ErrInvalidStatusTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrTransientConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		log.Printf("DB Error updating payout %s: %v", payoutID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payout"})
	}

	return c.JSON(fiber.Map{"message": "Payout updated", "payout": payout})
}
