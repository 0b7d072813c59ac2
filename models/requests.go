package models

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// PurchaseChallengeRequest buys one challenge from the catalog
type PurchaseChallengeRequest struct {
	Tier       int64      `json:"tier" validate:"required,gt=0"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=beginner pro"`
}

func (r *PurchaseChallengeRequest) Validate() error {
	return validate.Struct(r)
}

// PlaceBetRequest records a wager and optionally links it to challenges
type PlaceBetRequest struct {
	EventID      string   `json:"event_id" validate:"required"`
	Market       string   `json:"market" validate:"required"`
	Selection    string   `json:"selection" validate:"required"`
	Stake        float64  `json:"stake" validate:"required,gt=0"`
	OddsDecimal  float64  `json:"odds_decimal" validate:"required,gt=1"`
	ChallengeIDs []string `json:"challenge_ids" validate:"omitempty,dive,uuid4"`
}

func (r *PlaceBetRequest) Validate() error {
	return validate.Struct(r)
}

// SettleBetRequest applies a final result to a pending bet
type SettleBetRequest struct {
	Result BetResult `json:"result" validate:"required,oneof=won lost push"`
}

func (r *SettleBetRequest) Validate() error {
	return validate.Struct(r)
}

// ClaimRewardsRequest moves pending rewards into the balance. ChallengeID
// narrows the claim to one challenge; empty claims everything pending.
type ClaimRewardsRequest struct {
	ChallengeID string `json:"challenge_id" validate:"omitempty,uuid4"`
}

func (r *ClaimRewardsRequest) Validate() error {
	return validate.Struct(r)
}

// PayoutRequest asks for a withdrawal. Method-specific detail requirements
// are enforced by the payout service, not by tags.
type PayoutRequest struct {
	Amount        float64       `json:"amount" validate:"required,gt=0"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=bank paypal crypto"`
	Details       PayoutDetails `json:"details"`
}

func (r *PayoutRequest) Validate() error {
	return validate.Struct(r)
}

// UpdatePayoutStatusRequest is the admin/rails side of the payout lifecycle
type UpdatePayoutStatusRequest struct {
	Status PayoutStatus `json:"status" validate:"required,oneof=processing completed rejected"`
	Reason string       `json:"reason" validate:"omitempty,max=500"`
}

func (r *UpdatePayoutStatusRequest) Validate() error {
	return validate.Struct(r)
}

// StreakGrantRequest manually advances a challenge streak (support tooling)
type StreakGrantRequest struct {
	Wins   int    `json:"wins" validate:"required,gt=0,lte=20"`
	Reason string `json:"reason" validate:"required,max=500"`
}

func (r *StreakGrantRequest) Validate() error {
	return validate.Struct(r)
}
