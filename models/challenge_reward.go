package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeRewardStatus is the payment state of one unlocked level reward
type ChallengeRewardStatus string

const (
	ChallengeRewardPending   ChallengeRewardStatus = "pending"
	ChallengeRewardPaid      ChallengeRewardStatus = "paid"
	ChallengeRewardForfeited ChallengeRewardStatus = "forfeited" // pending reward voided by an admin cancel
)

// ChallengeReward is created the moment a streak crosses a level threshold.
// One row per (challenge, level); the row is the claimable entitlement.
type ChallengeReward struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"not null;index;uniqueIndex:idx_challenge_reward_level" json:"challenge_id"`
	UserID      string `gorm:"index;not null" json:"user_id"` // denormalized for claim-all scans

	Level  int                   `gorm:"not null;uniqueIndex:idx_challenge_reward_level" json:"level"`
	Amount decimal.Decimal       `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status ChallengeRewardStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	UnlockedAt time.Time  `gorm:"not null" json:"unlocked_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`

	Timestamps
}
